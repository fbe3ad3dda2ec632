package core

// Collection slugs. Every persisted collection (and "media", whose content
// lives outside the store) is named here so access rules can stay total.
const (
	CollectionUsers        = "users"
	CollectionSchools      = "schools"
	CollectionStudents     = "students"
	CollectionMessages     = "messages"
	CollectionInquiries    = "inquiries"
	CollectionApplications = "applications"
	CollectionTemplates    = "messageTemplates"
	CollectionMedia        = "media"
)
