package manifest

import "image-labeler/internal/domain"

var header = []string{"Value", "File Name", "Full Path", "Extension"}

func row(r domain.RenderResult) []interface{} {
	return []interface{}{r.Value.Cell(), r.FileName, r.FullPath, r.Extension}
}
