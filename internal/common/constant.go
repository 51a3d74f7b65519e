package common

// SessionCookieName is the default name of the cookie carrying the session token.
const SessionCookieName = "clouddrive_session"

// DefaultImageFile is the profile image reference given to new identities.
const DefaultImageFile = "default.png"
