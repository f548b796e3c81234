package util

import (
	"fmt"
	"net/url"
)

const AvatarSize = 64

// Avatar is a generated placeholder image for a signed in user.
func Avatar(seed string) string {
	return fmt.Sprintf("https://api.dicebear.com/7.x/initials/svg?seed=%v&size=%v", url.QueryEscape(seed), AvatarSize)
}
