package enums

// FileRole is the multipart field role a staged file was received under.
type FileRole string

const (
	FileRoleVideo     FileRole = "videoFile"
	FileRoleThumbnail FileRole = "thumbnail"
	FileRoleAvatar    FileRole = "avatar"
	FileRoleImage     FileRole = "image"
)

var fileRoles = []FileRole{
	FileRoleVideo,
	FileRoleThumbnail,
	FileRoleAvatar,
	FileRoleImage,
}

func (r FileRole) String() string {
	return string(r)
}

// MediaKind reports which media class a role accepts.
func (r FileRole) MediaKind() MediaKind {
	if r == FileRoleVideo {
		return MediaKindVideo
	}
	return MediaKindImage
}

// FileRoles returns every role an upload operation stages, in declaration
// order.
func FileRoles() []FileRole {
	roles := make([]FileRole, len(fileRoles))
	copy(roles, fileRoles)
	return roles
}
