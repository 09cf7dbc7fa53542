package services

import "context"

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func clampPage(page, perPage, defaultPerPage, maxPerPage int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 || perPage > maxPerPage {
		perPage = defaultPerPage
	}
	return page, perPage
}
