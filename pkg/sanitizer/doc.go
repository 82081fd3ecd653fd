// Package sanitizer normalizes form input before validation and storage.
//
// All functions are idempotent. Invalid input is handled without errors:
// values that cannot be normalized are returned trimmed, so validation
// still sees them and reports a message for the field.
//
// Normalization includes:
//   - Names and free text: collapse whitespace, trim
//   - Emails: trim, lowercase
//   - Phone numbers: E.164 (+[country][number])
//   - Room numbers: trim, uppercase
//   - Amenity lists: trimmed, de-duplicated, empty values dropped
//   - Redirect targets: only same-site relative paths survive
package sanitizer
