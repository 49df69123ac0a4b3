// Package classify talks to the categorization model and turns its loosely
// structured answers into validated move plans. Nothing downstream ever
// sees an unvalidated model response.
package classify
