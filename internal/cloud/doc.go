// Package cloud is the REST client for the eWeLink cloud API.
//
// It covers the account-facing endpoints the daemon needs: login, the family
// list, and the per-family device list. Responses share a common envelope of
// error code, message, and data document; code 0 is success, 401 and 403 mean
// the access token is no longer accepted and a fresh login is required.
//
// Unauthenticated requests (login) are signed with HMAC-SHA256 over the
// request body using the registered app secret; authenticated requests carry
// the bearer access token instead. Access tokens are valid for 15 days; the
// session records when the token was issued so callers can log in again
// before it lapses.
package cloud
