package preview

import (
	"fmt"
	"html"
	"strings"
)

const DefaultIcon = "mimetypes-other-other"

// IconFactory рендерит разметку иконки по расширению файла.
type IconFactory struct {
	icons map[string]string
}

func NewIconFactory(icons map[string]string) *IconFactory {
	normalized := make(map[string]string, len(icons))
	for ext, id := range icons {
		normalized[strings.ToLower(ext)] = id
	}
	return &IconFactory{icons: normalized}
}

func (f *IconFactory) IconForExtension(ext string) string {
	id, ok := f.icons[strings.ToLower(ext)]
	if !ok || id == "" {
		id = DefaultIcon
	}
	return fmt.Sprintf(`<span class="icon icon-size-small" data-identifier="%s"></span>`, html.EscapeString(id))
}
