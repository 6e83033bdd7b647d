package policy

import "github.com/langchou/fleetdesk/internal/models"

// CanViewAnyVehicle 所有角色均可查看车辆列表
func CanViewAnyVehicle(user *models.User) bool {
	return true
}

// CanViewVehicle 管理员可查看所有车辆，司机仅可查看分配给自己的车辆
func CanViewVehicle(user *models.User, vehicle *models.Vehicle) bool {
	if user.IsAdmin() {
		return true
	}
	return user.VehicleID != nil && *user.VehicleID == vehicle.ID
}

// CanCreateVehicle 仅管理员可创建车辆
func CanCreateVehicle(user *models.User) bool {
	return user.IsAdmin()
}

// CanUpdateVehicle 仅管理员可更新车辆
func CanUpdateVehicle(user *models.User, vehicle *models.Vehicle) bool {
	return user.IsAdmin()
}

// CanDeleteVehicle 仅管理员可删除车辆
func CanDeleteVehicle(user *models.User, vehicle *models.Vehicle) bool {
	return user.IsAdmin()
}

// CanArchiveVehicle 仅管理员可归档车辆
func CanArchiveVehicle(user *models.User, vehicle *models.Vehicle) bool {
	return user.IsAdmin()
}

// CanRestoreVehicle 仅管理员可恢复车辆
func CanRestoreVehicle(user *models.User, vehicle *models.Vehicle) bool {
	return user.IsAdmin()
}
