package api

// NotificationsTopic is the push destination the console subscribes to
const NotificationsTopic = "/topic/notifications"

// Notification is the body of every push message
type Notification struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
