// Package testenv starts the containers the integration tests run against.
// Everything in it is built only with the integration tag.
package testenv
