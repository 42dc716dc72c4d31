package render

import (
	"strings"

	"image-labeler/internal/domain"
)

const unsafeFilenameChars = `\/:*?"<>|`

func Sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(unsafeFilenameChars, r) {
			return -1
		}
		return r
	}, name)
}

// FileName builds "<base>_<value>.<ext>" with both parts sanitized.
func FileName(base string, v domain.RenderValue, format domain.ImageFormat) string {
	return Sanitize(base) + "_" + Sanitize(v.String()) + "." + format.Ext()
}
