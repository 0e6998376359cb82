package dto

import "time"

type InvitationResponse struct {
	Token      string    `json:"token"`
	Link       string    `json:"link"`
	SchemeLink string    `json:"scheme_link"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// JoinGroupRequest accepts a full invite URL, a custom-scheme link or a
// bare token.
type JoinGroupRequest struct {
	Link string `json:"link"`
}

type PendingInviteRequest struct {
	Token string `json:"token"`
}

type PendingInviteResponse struct {
	Token string `json:"token"`
}
