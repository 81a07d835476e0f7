// # Available Commands
//
//   - list: List the records of a content kind with filters
//   - show: Show one record, optionally with the body rendered to HTML
//   - categories: List the categories used by a content kind
//   - validate: Report malformed records and missing fields
//   - build: Export the site as static files
//   - serve: Start the live-reload preview server
//   - deploy: Upload the export to an S3-compatible bucket
//   - prefs: Read and change the stored locale and theme
//   - version: Show build information
//
// # Command Examples
//
//	// Featured projects as JSON
//	folio list projects --featured -o json
//
//	// Fail CI on any content warning
//	folio validate --strict
//
//	// English export with a sitemap
//	folio build --locale en --base-url https://example.com
//
//	// Preview on another port
//	folio serve --port 8080
package cmd
