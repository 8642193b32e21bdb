package services

import (
	"github.com/hivedesk/hivedesk-backend/internal/models"
)

// Access guard: the authorization rule table. Tenant isolation is handled
// below this layer (every store lookup is tenant-scoped, so cross-tenant
// references surface as not-found before these rules run).

// isAdmin handles the role enum exhaustively; an unknown role never
// grants anything.
func isAdmin(p models.Principal) bool {
	switch p.Role {
	case models.RoleAdmin:
		return true
	case models.RoleEmployee:
		return false
	default:
		return false
	}
}

// CanReadGroup: active member or admin.
func CanReadGroup(p models.Principal, g *models.GroupConversation) bool {
	return isAdmin(p) || g.HasMember(p.ID)
}

// CanManageGroup: group create/update/delete is an admin action.
func CanManageGroup(p models.Principal) bool {
	return isAdmin(p)
}

// CanDeleteGroupMessage: admin or the original sender. This is the edge
// of the admin bypass; ownership-only rules below don't extend it.
func CanDeleteGroupMessage(p models.Principal, m *models.GroupMessage) bool {
	return isAdmin(p) || m.SenderID == p.ID
}

// IsDirectParticipant: direct messages are visible to their two parties
// only, admin role notwithstanding.
func IsDirectParticipant(p models.Principal, m *models.DirectMessage) bool {
	return m.SenderID == p.ID || m.ReceiverID == p.ID
}
