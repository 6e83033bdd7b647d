package policy

import (
	"testing"

	"github.com/langchou/fleetdesk/internal/models"
	"github.com/langchou/fleetdesk/internal/state"
)

func int64p(v int64) *int64 { return &v }

func TestCanViewVehicle(t *testing.T) {
	vehicle := &models.Vehicle{ID: 10}
	admin := &models.User{ID: 1, Role: models.RoleAdmin}
	assigned := &models.User{ID: 2, Role: models.RoleChauffeur, VehicleID: int64p(10)}
	other := &models.User{ID: 3, Role: models.RoleChauffeur, VehicleID: int64p(11)}
	unassigned := &models.User{ID: 4, Role: models.RoleChauffeur}

	if !CanViewVehicle(admin, vehicle) {
		t.Fatalf("expected admin to view any vehicle")
	}
	if !CanViewVehicle(assigned, vehicle) {
		t.Fatalf("expected assigned chauffeur to view own vehicle")
	}
	if CanViewVehicle(other, vehicle) {
		t.Fatalf("expected chauffeur with another vehicle denied")
	}
	if CanViewVehicle(unassigned, vehicle) {
		t.Fatalf("expected unassigned chauffeur denied")
	}
}

func TestVehicleAdminOnlyActions(t *testing.T) {
	vehicle := &models.Vehicle{ID: 10}
	admin := &models.User{ID: 1, Role: models.RoleAdmin}
	chauffeur := &models.User{ID: 2, Role: models.RoleChauffeur, VehicleID: int64p(10)}

	checks := map[string]bool{
		"create":  CanCreateVehicle(chauffeur),
		"update":  CanUpdateVehicle(chauffeur, vehicle),
		"delete":  CanDeleteVehicle(chauffeur, vehicle),
		"archive": CanArchiveVehicle(chauffeur, vehicle),
		"restore": CanRestoreVehicle(chauffeur, vehicle),
	}
	for action, allowed := range checks {
		if allowed {
			t.Fatalf("expected chauffeur denied for %s", action)
		}
	}
	if !CanCreateVehicle(admin) || !CanArchiveVehicle(admin, vehicle) || !CanRestoreVehicle(admin, vehicle) {
		t.Fatalf("expected admin allowed")
	}
}

func TestCanViewExchange(t *testing.T) {
	exchange := &models.Exchange{ID: 5, FromDriverID: 2, ToDriverID: 3, Status: state.StatusPending}
	admin := &models.User{ID: 1, Role: models.RoleAdmin}
	initiator := &models.User{ID: 2, Role: models.RoleChauffeur}
	target := &models.User{ID: 3, Role: models.RoleChauffeur}
	outsider := &models.User{ID: 4, Role: models.RoleChauffeur}

	if !CanViewExchange(admin, exchange) || !CanViewExchange(initiator, exchange) || !CanViewExchange(target, exchange) {
		t.Fatalf("expected admin and both parties to view exchange")
	}
	if CanViewExchange(outsider, exchange) {
		t.Fatalf("expected outsider denied")
	}
}

func TestCanCreateExchange(t *testing.T) {
	if CanCreateExchange(&models.User{Role: models.RoleAdmin}) {
		t.Fatalf("expected admin denied from creating exchanges")
	}
	if !CanCreateExchange(&models.User{Role: models.RoleChauffeur}) {
		t.Fatalf("expected chauffeur allowed to create exchanges")
	}
}

func TestCanUpdateExchange(t *testing.T) {
	initiator := &models.User{ID: 2, Role: models.RoleChauffeur}
	target := &models.User{ID: 3, Role: models.RoleChauffeur}

	pending := &models.Exchange{FromDriverID: 2, ToDriverID: 3, Status: state.StatusPending}
	approved := &models.Exchange{FromDriverID: 2, ToDriverID: 3, Status: state.StatusApproved}

	if !CanUpdateExchange(initiator, pending) {
		t.Fatalf("expected initiator to update pending exchange")
	}
	if CanUpdateExchange(target, pending) {
		t.Fatalf("expected target denied from updating")
	}
	if CanUpdateExchange(initiator, approved) {
		t.Fatalf("expected update denied once decided")
	}
}

func TestCanDeleteExchange(t *testing.T) {
	admin := &models.User{ID: 1, Role: models.RoleAdmin}
	initiator := &models.User{ID: 2, Role: models.RoleChauffeur}

	approved := &models.Exchange{FromDriverID: 2, ToDriverID: 3, Status: state.StatusApproved}
	pending := &models.Exchange{FromDriverID: 2, ToDriverID: 3, Status: state.StatusPending}

	// 管理员不受状态限制
	if !CanDeleteExchange(admin, approved) {
		t.Fatalf("expected admin to delete decided exchange")
	}
	if !CanDeleteExchange(initiator, pending) {
		t.Fatalf("expected initiator to delete pending exchange")
	}
	if CanDeleteExchange(initiator, approved) {
		t.Fatalf("expected initiator denied once decided")
	}
}

func TestCanApproveRejectExchange(t *testing.T) {
	admin := &models.User{ID: 1, Role: models.RoleAdmin}
	chauffeur := &models.User{ID: 2, Role: models.RoleChauffeur}

	pending := &models.Exchange{FromDriverID: 2, Status: state.StatusPending}
	rejected := &models.Exchange{FromDriverID: 2, Status: state.StatusRejected}

	if !CanApproveExchange(admin, pending) || !CanRejectExchange(admin, pending) {
		t.Fatalf("expected admin to decide pending exchange")
	}
	if CanApproveExchange(chauffeur, pending) {
		t.Fatalf("expected chauffeur denied from approving")
	}
	if CanApproveExchange(admin, rejected) || CanRejectExchange(admin, rejected) {
		t.Fatalf("expected decided exchange not decidable again")
	}
}
