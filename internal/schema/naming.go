package schema

import "github.com/ettle/strcase"

// Slug returns the hyphenated, lower-cased form of a declared name.
// "TrackedItems" becomes "tracked-items".
func Slug(name string) string {
	return strcase.ToKebab(name)
}

// TableName returns the storage table name for a declared name.
// "TrackedItems" becomes "tracked_items".
func TableName(name string) string {
	return strcase.ToSnake(name)
}

// Humanize returns a title for a declared name.
// "TrackedItems" becomes "Tracked Items".
func Humanize(name string) string {
	return strcase.ToCase(name, strcase.TitleCase, ' ')
}
