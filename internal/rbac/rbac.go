package rbac

// Role constants
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
	RoleGuest  = "guest"
)

// Permission constants
const (
	PermWorkspaceView     = "workspace.view"
	PermWorkspaceManage   = "workspace.manage"
	PermDocumentView      = "document.view"
	PermDocumentCreate    = "document.create"
	PermDocumentEdit      = "document.edit"
	PermDocumentDelete    = "document.delete"
	PermFolderManage      = "folder.manage"
	PermTaskManage        = "task.manage"
	PermCommentCreate     = "comment.create"
	PermCommentDelete     = "comment.delete"
	PermMemberInvite      = "member.invite"
	PermMemberRemove      = "member.remove"
	PermPresenceBroadcast = "presence.broadcast"
	PermAuditRead         = "audit.read"
	PermAdminAccess       = "admin.access"
)

// AllRoles lists every recognized role.
var AllRoles = []string{RoleOwner, RoleAdmin, RoleEditor, RoleViewer, RoleGuest}

// AllPermissions lists every recognized permission.
var AllPermissions = []string{
	PermWorkspaceView, PermWorkspaceManage,
	PermDocumentView, PermDocumentCreate, PermDocumentEdit, PermDocumentDelete,
	PermFolderManage, PermTaskManage,
	PermCommentCreate, PermCommentDelete,
	PermMemberInvite, PermMemberRemove,
	PermPresenceBroadcast,
	PermAuditRead, PermAdminAccess,
}

// RolePermissions defines what each role can do. Any (role, permission)
// pair absent from this matrix is denied.
var RolePermissions = map[string][]string{
	RoleOwner: {
		PermWorkspaceView, PermWorkspaceManage,
		PermDocumentView, PermDocumentCreate, PermDocumentEdit, PermDocumentDelete,
		PermFolderManage, PermTaskManage,
		PermCommentCreate, PermCommentDelete,
		PermMemberInvite, PermMemberRemove,
		PermPresenceBroadcast,
		PermAuditRead, PermAdminAccess,
	},
	RoleAdmin: {
		PermWorkspaceView,
		PermDocumentView, PermDocumentCreate, PermDocumentEdit, PermDocumentDelete,
		PermFolderManage, PermTaskManage,
		PermCommentCreate, PermCommentDelete,
		PermMemberInvite, PermMemberRemove,
		PermPresenceBroadcast,
		PermAuditRead, PermAdminAccess,
		// Admin CANNOT: PermWorkspaceManage (owner-only)
	},
	RoleEditor: {
		PermWorkspaceView,
		PermDocumentView, PermDocumentCreate, PermDocumentEdit,
		PermFolderManage, PermTaskManage,
		PermCommentCreate,
		PermPresenceBroadcast,
	},
	RoleViewer: {
		PermWorkspaceView,
		PermDocumentView,
		PermCommentCreate,
	},
	RoleGuest: {
		PermDocumentView,
	},
}

// HasPermission checks if a role has a specific permission.
// Unknown roles get least privilege: every permission is denied.
func HasPermission(role, permission string) bool {
	perms, ok := RolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == permission {
			return true
		}
	}
	return false
}
