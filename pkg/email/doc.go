// Package email sends transactional mail for the authentication flows.
//
// EmailSender is the delivery abstraction: PostmarkClient implements it
// on Postmark's transactional API for production, LogSender logs the
// message instead of sending for development and tests.
//
// VerificationMailer composes the address-verification message on top
// of an EmailSender and satisfies the session core's notifier contract.
package email
