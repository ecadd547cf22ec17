package web

import (
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/thriftstock/thriftstock/internal/backend"
)

const recentItemsLimit = 8

type statusCount struct {
	Status backend.Status
	Count  int
}

type dashboardData struct {
	Total         int
	StatusCounts  []statusCount
	Recent        []backend.Item
	BackendStatus string
	BackendError  string
}

// dashboard shows one count per status. Counts come from the list
// envelope's total with page_size=1, fetched in parallel.
func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snap, err := h.snapshot(ctx)
	if err != nil {
		h.loadFailed(w, r, "Dashboard unavailable", err)
		return
	}

	data := dashboardData{StatusCounts: make([]statusCount, len(snap.Statuses))}
	one := 1
	recent := recentItemsLimit

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := h.api.ListItems(gctx, backend.ItemFilters{PageSize: &recent, SortBy: "date_added", SortOrder: "desc"})
		if err != nil {
			return err
		}
		data.Total = list.Total
		data.Recent = list.Items
		return nil
	})
	for i, st := range snap.Statuses {
		i, st := i, st
		g.Go(func() error {
			id := st.StatusID
			list, err := h.api.ListItems(gctx, backend.ItemFilters{PageSize: &one, StatusID: &id})
			if err != nil {
				return err
			}
			data.StatusCounts[i] = statusCount{Status: st, Count: list.Total}
			return nil
		})
	}
	var healthErr error
	g.Go(func() error {
		health, err := h.api.Health(gctx)
		if err != nil {
			healthErr = err
			return nil
		}
		data.BackendStatus = health.Status
		return nil
	})
	if err := g.Wait(); err != nil {
		h.loadFailed(w, r, "Dashboard unavailable", err)
		return
	}
	if healthErr != nil {
		data.BackendError = healthErr.Error()
	}
	h.render(w, r, http.StatusOK, "pages/dashboard.html", h.page(r, "Dashboard", snap, data))
}
