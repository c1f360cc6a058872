package testutil

// SampleSessionJSON is a stored session blob in the multi-query layout
const SampleSessionJSON = `{
	"main_text": "Go is an open source programming language that makes it simple to build secure, scalable systems.",
	"queries": ["what is go", "is go open source", "", "", ""],
	"scores": [72.4, 88, null, null, null]
}`

// LegacySessionJSON is a stored session blob in the single-query layout
const LegacySessionJSON = `{
	"main_text": "Redis is an in-memory data store.",
	"query": "what is redis",
	"score": 55.5
}`

// SampleMarkup is an editor buffer carrying a diff overlay
const SampleMarkup = `Go is <span class="aeo-del" style="background-color:#fee2e2;color:#dc2626;">a closed</span>` +
	`<span class="aeo-ins" style="background-color:#dcfce7;color:#16a34a;">an open</span> source language &amp; toolchain.`

// SampleMarkupPlain is SampleMarkup with deletions dropped and tags stripped
const SampleMarkupPlain = "Go is an open source language & toolchain."
