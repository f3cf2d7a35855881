package cached

import (
	"fmt"
	"strconv"
)

// Cache keys live here and nowhere else.

func UserIDKey(id int64) string { return "user:" + strconv.FormatInt(id, 10) }

func UserEmailKey(email string) string { return "user:" + email }

func ContactKey(contactID, userID int64) string {
	return fmt.Sprintf("contact:%d:user:%d", contactID, userID)
}

// ContactListMarkerKey holds the current list generation of a user.
func ContactListMarkerKey(userID int64) string {
	return "contacts:" + strconv.FormatInt(userID, 10)
}

func ContactPageKey(userID int64, generation string, skip, limit int) string {
	return fmt.Sprintf("contacts:%d:%s:%d:%d", userID, generation, skip, limit)
}
