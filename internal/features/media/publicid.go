package media

import "strings"

// Delivery types of a Cloudinary asset; destroy must name the one it was stored as.
const (
	ResourceImage = "image"
	ResourceVideo = "video"
	ResourceRaw   = "raw"
)

// PublicIDFromURL recovers the asset public id from a delivery URL such as
// https://res.cloudinary.com/demo/image/upload/v1712/group_pictures/group_1.jpg.
// It reports false for URLs that are not hosted on Cloudinary or carry no id.
func PublicIDFromURL(mediaURL string) (string, bool) {
	if !strings.Contains(mediaURL, "cloudinary.com") {
		return "", false
	}

	parts := strings.Split(mediaURL, "/")
	uploadIndex := -1
	for i, part := range parts {
		if part == "upload" {
			uploadIndex = i
			break
		}
	}
	if uploadIndex == -1 || uploadIndex+2 >= len(parts) {
		return "", false
	}

	start := uploadIndex + 1
	if strings.HasPrefix(parts[start], "v") {
		start++
	}

	path := append([]string(nil), parts[start:]...)
	last := len(path) - 1
	path[last], _, _ = strings.Cut(path[last], ".")

	id := strings.Join(path, "/")
	return id, id != ""
}

// ResourceTypeFromURL returns the resource type segment that precedes "upload"
// in a delivery URL, defaulting to image.
func ResourceTypeFromURL(mediaURL string) string {
	parts := strings.Split(mediaURL, "/")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "upload" {
			continue
		}
		switch parts[i-1] {
		case ResourceVideo, ResourceRaw:
			return parts[i-1]
		}
		break
	}
	return ResourceImage
}

// GroupPicturePublicID is the conventional id of a group's cover image
func GroupPicturePublicID(groupID string) string {
	return GroupPictureFolder + "/group_" + groupID
}

// ProfilePicturePublicID is the conventional id of a user's avatar
func ProfilePicturePublicID(userID string) string {
	return ProfilePictureFolder + "/user_" + userID
}
