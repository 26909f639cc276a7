package registry

import (
	"fmt"

	"github.com/ruteri/balancer-helper-registry/interfaces"
)

// Role is the caller's standing, resolved once per call by comparing the
// caller against the configured principals.
type Role int

const (
	RoleOther Role = iota
	RoleKeeper
	RoleSafe
)

func (r Role) String() string {
	switch r {
	case RoleKeeper:
		return "keeper"
	case RoleSafe:
		return "safe"
	default:
		return "other"
	}
}

// Operation names a registry operation.
type Operation string

const (
	OpAddPool        Operation = "addPool"
	OpAddPools       Operation = "addPools"
	OpDeletePool     Operation = "deletePool"
	OpDeletePools    Operation = "deletePools"
	OpDeleteAllPools Operation = "deleteAllPools"
	OpUpdateKeeper   Operation = "updateKeeper"
	OpUpdateSafe     Operation = "updateSafe"
	OpUpdateVault    Operation = "updateVault"
	OpPause          Operation = "pause"
	OpPauseAll       Operation = "pauseAll"
	OpGetPool        Operation = "getPool"
	OpGetPools       Operation = "getPools"
	OpPoolsLength    Operation = "poolsLength"
	OpRestore        Operation = "restore"
)

// PermissionClass groups operations by who may call them.
type PermissionClass int

const (
	// Unrestricted operations are reads; anyone may call them.
	Unrestricted PermissionClass = iota
	// Maintenance operations may be called by the keeper or the safe.
	Maintenance
	// GovernanceOnly operations may be called by the safe only.
	GovernanceOnly
)

// Class returns the permission class of op. Unknown operations are
// governance-only.
func (op Operation) Class() PermissionClass {
	switch op {
	case OpAddPool, OpAddPools, OpDeletePool, OpDeletePools, OpDeleteAllPools, OpUpdateKeeper:
		return Maintenance
	case OpGetPool, OpGetPools, OpPoolsLength:
		return Unrestricted
	default:
		return GovernanceOnly
	}
}

// ResolveRole maps caller to its role. The safe takes precedence when the
// keeper and the safe are the same identity. The zero address never holds a role.
func ResolveRole(cfg interfaces.RegistryConfig, caller interfaces.ContractAddress) Role {
	switch {
	case caller.IsZero():
		return RoleOther
	case caller == cfg.Safe:
		return RoleSafe
	case caller == cfg.Keeper:
		return RoleKeeper
	default:
		return RoleOther
	}
}

// Permitted reports whether role may perform op.
func Permitted(role Role, op Operation) bool {
	switch op.Class() {
	case Unrestricted:
		return true
	case Maintenance:
		return role == RoleKeeper || role == RoleSafe
	default:
		return role == RoleSafe
	}
}

func authorize(cfg interfaces.RegistryConfig, caller interfaces.ContractAddress, op Operation) (Role, error) {
	role := ResolveRole(cfg, caller)
	if !Permitted(role, op) {
		return role, fmt.Errorf("%w: %s may not %s", interfaces.ErrUnauthorized, caller, op)
	}
	return role, nil
}
