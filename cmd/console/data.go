package main

import (
	"context"
	"io"
	"log/slog"
	"sort"

	tea "github.com/charmbracelet/bubbletea"

	"overworld/internal/storage"
	"overworld/pkg/navgraph"
	"overworld/pkg/tilemap"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type areasLoadedMsg struct {
	areas []tilemap.AreaID
	err   error
}

type areaLoadedMsg struct {
	area        *tilemap.AreaMap
	connections []navgraph.Connection
	err         error
}

type yankedMsg struct {
	err error
}

func loadAreas(store storage.Storage, timeout timeoutFunc) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := timeout()
		defer cancel()

		areas, err := store.ListAreaMaps(ctx)
		if err != nil {
			return areasLoadedMsg{err: err}
		}
		sort.Slice(areas, func(i, j int) bool { return areas[i] < areas[j] })
		return areasLoadedMsg{areas: areas}
	}
}

func loadArea(store storage.Storage, id tilemap.AreaID, timeout timeoutFunc) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := timeout()
		defer cancel()

		area, err := store.LoadAreaMap(ctx, id)
		if err != nil {
			return areaLoadedMsg{err: err}
		}
		graph, err := store.LoadGraph(ctx)
		if err != nil {
			return areaLoadedMsg{err: err}
		}
		return areaLoadedMsg{area: area, connections: graph.Connections(id)}
	}
}

type timeoutFunc func() (context.Context, context.CancelFunc)
