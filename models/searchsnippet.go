package models

// SearchSnippet highlights why an email matched a query.
type SearchSnippet struct {
	EmailID string  `jmap:"emailId,required"`
	Subject *string `jmap:"subject"`
	Preview *string `jmap:"preview"`
}
