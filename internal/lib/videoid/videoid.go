// Package videoid нормализует ссылку на видео к каноническому идентификатору.
//
// Клиент может прислать как голый идентификатор, так и полную ссылку на
// страницу просмотра. Во втором случае идентификатор извлекается из
// query-параметра v, всё остальное (таймкоды, плейлисты) отбрасывается.
package videoid

import (
	"net/url"
	"strings"
)

// Normalize возвращает канонический идентификатор видео.
//
// Если reference выглядит как URL страницы просмотра с параметром v,
// возвращается значение этого параметра. Иначе reference возвращается как есть.
func Normalize(reference string) string {
	reference = strings.TrimSpace(reference)
	if !strings.Contains(reference, "v=") {
		return reference
	}
	u, err := url.Parse(reference)
	if err != nil {
		return reference
	}
	if v := u.Query().Get("v"); v != "" {
		return v
	}
	return reference
}
