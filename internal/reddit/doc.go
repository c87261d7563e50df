// Package reddit is a minimal client for the parts of the Reddit API the
// publisher needs: replacing a subreddit stylesheet, uploading stylesheet
// images and sending modmail.
//
// The client authenticates with the OAuth2 refresh-token grant of a script
// or installed app and caches the bearer token until shortly before it
// expires. Requests carry the configured user agent, as the API requires.
//
// Client satisfies publish.API and notify.Composer.
package reddit
