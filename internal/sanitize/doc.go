// Package sanitize normalizes video metadata text to YouTube's accepted
// envelope before upload.
//
// The primary use cases are:
//   - Cleaning titles and descriptions of typographic characters, markup,
//     and control characters that trigger API rejections
//   - Reducing tag lists to the per-tag and aggregate constraints the
//     Data API enforces
//
// Text cleaning is idempotent: applying it twice yields the same result as
// applying it once. Tag cleaning distinguishes "no tags" (nil) from an empty
// list so callers can omit the tags field entirely.
package sanitize
