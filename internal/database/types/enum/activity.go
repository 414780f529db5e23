package enum

// ActivityType represents the governance actions recorded in the activity log.
type ActivityType string

const (
	ActivityTypeAll               ActivityType = ""
	ActivityTypeZoneCreated       ActivityType = "ZONE_CREATED"
	ActivityTypeZoneUpdated       ActivityType = "ZONE_UPDATED"
	ActivityTypeFounderAdded      ActivityType = "FOUNDER_ADDED"
	ActivityTypePermissionGranted ActivityType = "PERMISSION_GRANTED"
	ActivityTypePermissionRevoked ActivityType = "PERMISSION_REVOKED"
	ActivityTypeSubscribed        ActivityType = "SUBSCRIBED"
	ActivityTypeUnsubscribed      ActivityType = "UNSUBSCRIBED"
	ActivityTypeProposalCreated   ActivityType = "PROPOSAL_CREATED"
	ActivityTypeProposalPromoted  ActivityType = "PROPOSAL_PROMOTED"
	ActivityTypeUserBanned        ActivityType = "USER_BANNED"
	ActivityTypeUserAllowed       ActivityType = "USER_ALLOWED"
	ActivityTypeUserErased        ActivityType = "USER_ERASED"
	ActivityTypeSubmissionErased  ActivityType = "SUBMISSION_ERASED"
	ActivityTypeContentModerated  ActivityType = "CONTENT_MODERATED"
)

// String returns the activity name.
func (a ActivityType) String() string {
	if a == ActivityTypeAll {
		return "ALL"
	}
	return string(a)
}
