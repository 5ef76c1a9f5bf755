package ratelimit

import "strings"

// Route сопоставляет префикс пути с категорией.
type Route struct {
	Prefix   string
	Category Category
}

// DefaultRoutes таблица категорий; более длинные префиксы идут первыми.
var DefaultRoutes = []Route{
	{Prefix: "/api/v1/auth", Category: CategoryAuth},
	{Prefix: "/api/v1/ai", Category: CategoryAI},
	{Prefix: "/api/", Category: CategoryGeneral},
}

// CategoryForPath возвращает категорию первого совпавшего префикса.
// ok = false, если путь не ограничивается.
func CategoryForPath(routes []Route, path string) (Category, bool) {
	for _, r := range routes {
		if path == r.Prefix || strings.HasPrefix(path, strings.TrimSuffix(r.Prefix, "/")+"/") {
			return r.Category, true
		}
	}
	return "", false
}
