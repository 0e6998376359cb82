package integration

import (
	"os"
	"testing"

	"github.com/YotaroKono/sato-api/internal/invite"
	"github.com/YotaroKono/sato-api/internal/services"
	"github.com/YotaroKono/sato-api/tests/testutil"
)

// TestMain runs before all tests in this package
func TestMain(m *testing.M) {
	code := m.Run()
	os.Exit(code)
}

// setupTest creates a test database and returns cleanup function
func setupTest(t *testing.T) *testutil.TestDB {
	t.Helper()
	return testutil.SetupTestDB(t)
}

// newInvitationService wires the full issuance stack against the test
// database with the production link formats.
func newInvitationService(tdb *testutil.TestDB) (*services.InvitationService, *services.GroupService) {
	groupService := services.NewGroupService(tdb.DB)
	linker := invite.NewLinker("https://sato-one.vercel.app", "sato")
	return services.NewInvitationService(tdb.DB, groupService, linker), groupService
}
