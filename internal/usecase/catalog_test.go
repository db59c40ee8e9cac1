package usecase_test

import (
	"context"
	"errors"
	"hqcatalog/internal/api"
	"hqcatalog/internal/catalog"
	"hqcatalog/internal/usecase"
	"hqcatalog/internal/usecase/mocks"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
)

func sample() []catalog.Entry {
	lent := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	return []catalog.Entry{
		{ID: 1, Titulo: "Batman: Ano Um", Autor: "Frank Miller", Ano: 1987, Editora: "DC Comics", Status: catalog.StatusAvailable},
		{ID: 2, Titulo: "Saga Vol. 1", Autor: "Brian K. Vaughan", Ano: 2012, Editora: "Image", Status: catalog.StatusBorrowed, DataEmprestimo: &lent},
		{ID: 3, Titulo: "Watchmen", Autor: "Alan Moore", Ano: 1986, Editora: "DC Comics", Status: catalog.StatusAvailable},
	}
}

func TestCatalogUsecase_ToggleLoan(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockBackend := mocks.NewMockBackend(ctrl)
	mockOffline := mocks.NewMockOfflineStore(ctrl)

	uc := usecase.NewCatalogUsecase(mockBackend, mockOffline)
	ctx := context.Background()
	unreachable := &api.NetworkError{Err: errors.New("connection refused")}

	t.Run("success - borrow available entry", func(t *testing.T) {
		known := sample()
		lent := known[0]
		lent.Status = catalog.StatusBorrowed
		mockBackend.EXPECT().Get(ctx, 1).Return(known[0], nil)
		mockBackend.EXPECT().Borrow(ctx, 1).Return(lent, nil)

		res, err := uc.ToggleLoan(ctx, 1, known)

		assert.NoError(t, err)
		assert.False(t, res.Offline)
		assert.True(t, res.Borrowed())
		assert.Equal(t, `Livro "Batman: Ano Um" emprestado com sucesso!`, res.Message())
	})

	t.Run("success - return borrowed entry", func(t *testing.T) {
		known := sample()
		back := known[1]
		back.Status = catalog.StatusAvailable
		back.DataEmprestimo = nil
		mockBackend.EXPECT().Get(ctx, 2).Return(known[1], nil)
		mockBackend.EXPECT().Return(ctx, 2).Return(back, nil)

		res, err := uc.ToggleLoan(ctx, 2, known)

		assert.NoError(t, err)
		assert.False(t, res.Borrowed())
		assert.Equal(t, `Livro "Saga Vol. 1" devolvido com sucesso!`, res.Message())
	})

	t.Run("success - stale snapshot follows the backend state", func(t *testing.T) {
		known := sample()
		lentElsewhere := known[0]
		lentElsewhere.Status = catalog.StatusBorrowed
		back := known[0]
		mockBackend.EXPECT().Get(ctx, 1).Return(lentElsewhere, nil)
		mockBackend.EXPECT().Return(ctx, 1).Return(back, nil)

		res, err := uc.ToggleLoan(ctx, 1, known)

		assert.NoError(t, err)
		assert.False(t, res.Borrowed())
		assert.Equal(t, `Livro "Batman: Ano Um" devolvido com sucesso!`, res.Message())
	})

	t.Run("success - entry missing from the snapshot", func(t *testing.T) {
		entry := sample()[2]
		lent := entry
		lent.Status = catalog.StatusBorrowed
		mockBackend.EXPECT().Get(ctx, 3).Return(entry, nil)
		mockBackend.EXPECT().Borrow(ctx, 3).Return(lent, nil)

		res, err := uc.ToggleLoan(ctx, 3, nil)

		assert.NoError(t, err)
		assert.Equal(t, 3, res.Entry.ID)
		assert.True(t, res.Borrowed())
	})

	t.Run("success - empty backend body falls back to local transition", func(t *testing.T) {
		mockBackend.EXPECT().Get(ctx, 1).Return(sample()[0], nil)
		mockBackend.EXPECT().Borrow(ctx, 1).Return(catalog.Entry{}, nil)

		res, err := uc.ToggleLoan(ctx, 1, sample())

		assert.NoError(t, err)
		assert.Equal(t, 1, res.Entry.ID)
		assert.True(t, res.Borrowed())
		assert.NotNil(t, res.Entry.DataEmprestimo)
	})

	t.Run("offline - toggled in sample dataset", func(t *testing.T) {
		known := sample()
		lent := known[0]
		lent.Status = catalog.StatusBorrowed
		mockBackend.EXPECT().Get(ctx, 1).Return(catalog.Entry{}, unreachable)
		mockOffline.EXPECT().Toggle(1, gomock.Any()).Return(lent, nil)

		res, err := uc.ToggleLoan(ctx, 1, known)

		assert.NoError(t, err)
		assert.True(t, res.Offline)
		assert.Equal(t, `Livro "Batman: Ano Um" emprestado com sucesso! (modo offline)`, res.Message())
	})

	t.Run("offline - backend lost between lookup and toggle", func(t *testing.T) {
		known := sample()
		mockBackend.EXPECT().Get(ctx, 2).Return(known[1], nil)
		mockBackend.EXPECT().Return(ctx, 2).Return(catalog.Entry{}, &api.NetworkError{Err: errors.New("timeout")})
		mockOffline.EXPECT().Toggle(2, gomock.Any()).Return(catalog.Entry{}, catalog.ErrNotFound)

		res, err := uc.ToggleLoan(ctx, 2, known)

		assert.NoError(t, err)
		assert.True(t, res.Offline)
		assert.Equal(t, catalog.StatusAvailable, res.Entry.Status)
		assert.Nil(t, res.Entry.DataEmprestimo)
	})

	t.Run("offline - entry read from the sample dataset", func(t *testing.T) {
		entry := sample()[2]
		lent := entry
		lent.Status = catalog.StatusBorrowed
		mockBackend.EXPECT().Get(ctx, 3).Return(catalog.Entry{}, unreachable)
		mockOffline.EXPECT().Get(3).Return(entry, nil)
		mockOffline.EXPECT().Toggle(3, gomock.Any()).Return(lent, nil)

		res, err := uc.ToggleLoan(ctx, 3, nil)

		assert.NoError(t, err)
		assert.True(t, res.Offline)
		assert.True(t, res.Borrowed())
	})

	t.Run("error - offline and unknown everywhere", func(t *testing.T) {
		mockBackend.EXPECT().Get(ctx, 42).Return(catalog.Entry{}, unreachable)
		mockOffline.EXPECT().Get(42).Return(catalog.Entry{}, catalog.ErrNotFound)

		_, err := uc.ToggleLoan(ctx, 42, sample())

		assert.True(t, errors.Is(err, api.ErrOffline))
	})

	t.Run("error - not found", func(t *testing.T) {
		mockBackend.EXPECT().Get(ctx, 99).Return(catalog.Entry{}, catalog.ErrNotFound)

		_, err := uc.ToggleLoan(ctx, 99, sample())

		assert.Error(t, err)
		assert.True(t, errors.Is(err, catalog.ErrNotFound))
	})

	t.Run("error - backend rejects transition", func(t *testing.T) {
		mockBackend.EXPECT().Get(ctx, 1).Return(sample()[0], nil)
		mockBackend.EXPECT().Borrow(ctx, 1).Return(catalog.Entry{}, &api.StatusError{StatusCode: 400, Message: "Livro já está emprestado"})

		_, err := uc.ToggleLoan(ctx, 1, sample())

		var se *api.StatusError
		assert.True(t, errors.As(err, &se))
		assert.Equal(t, 400, se.StatusCode)
	})
}

func TestCatalogUsecase_ToggleLoanWithoutOfflineStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockBackend := mocks.NewMockBackend(ctrl)
	uc := usecase.NewCatalogUsecase(mockBackend, nil)
	ctx := context.Background()

	t.Run("success - transition applied to the snapshot entry", func(t *testing.T) {
		mockBackend.EXPECT().Get(ctx, 3).Return(sample()[2], nil)
		mockBackend.EXPECT().Borrow(ctx, 3).Return(catalog.Entry{}, &api.NetworkError{Err: errors.New("refused")})

		res, err := uc.ToggleLoan(ctx, 3, sample())

		assert.NoError(t, err)
		assert.True(t, res.Offline)
		assert.True(t, res.Borrowed())
	})

	t.Run("error - offline entry outside the snapshot", func(t *testing.T) {
		mockBackend.EXPECT().Get(ctx, 3).Return(catalog.Entry{}, &api.NetworkError{Err: errors.New("refused")})

		_, err := uc.ToggleLoan(ctx, 3, nil)

		assert.True(t, errors.Is(err, api.ErrOffline))
	})
}

func TestCatalogUsecase_Browse(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockBackend := mocks.NewMockBackend(ctrl)
	uc := usecase.NewCatalogUsecase(mockBackend, nil)
	ctx := context.Background()

	t.Run("success - filtered and paged", func(t *testing.T) {
		mockBackend.EXPECT().List(ctx).Return(sample(), nil)

		view, err := uc.Browse(ctx, catalog.Filter{Editora: "DC Comics", Sort: catalog.DefaultSort}, 1, 1)

		assert.NoError(t, err)
		assert.Equal(t, 2, view.Page.Total)
		assert.Equal(t, 2, view.Page.TotalPages)
		assert.Len(t, view.Page.Items, 1)
		assert.Equal(t, "Batman: Ano Um", view.Page.Items[0].Titulo)
		assert.Len(t, view.All, 3)
		assert.Equal(t, []string{"DC Comics", "Image"}, view.Facets.Editoras)
	})

	t.Run("error - backend failure", func(t *testing.T) {
		mockBackend.EXPECT().List(ctx).Return(nil, &api.StatusError{StatusCode: 500, Message: "boom"})

		_, err := uc.Browse(ctx, catalog.Filter{}, 1, 12)

		assert.Error(t, err)
	})
}

func TestNavigate(t *testing.T) {
	all := sample()
	f := catalog.Filter{Sort: catalog.DefaultSort}

	tests := []struct {
		name      string
		filter    catalog.Filter
		current   int
		requested int
		wantPage  int
		wantPages int
	}{
		{name: "success - moves to the requested page", filter: f, current: 1, requested: 2, wantPage: 2, wantPages: 3},
		{name: "success - jumps to the last page", filter: f, current: 1, requested: 3, wantPage: 3, wantPages: 3},
		{name: "beyond the last page keeps the current one", filter: f, current: 2, requested: 5, wantPage: 2, wantPages: 3},
		{name: "zero keeps the current page", filter: f, current: 3, requested: 0, wantPage: 3, wantPages: 3},
		{name: "negative keeps the current page", filter: f, current: 2, requested: -4, wantPage: 2, wantPages: 3},
		{
			name:      "narrower filter pulls a stale page back",
			filter:    catalog.Filter{Editora: "Image", Sort: catalog.DefaultSort},
			current:   3,
			requested: 3,
			wantPage:  1,
			wantPages: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := usecase.Navigate(all, tt.filter, tt.current, tt.requested, 1)
			assert.Equal(t, tt.wantPage, v.Page.Number)
			assert.Equal(t, tt.wantPages, v.Page.TotalPages)
			assert.Len(t, v.Page.Items, 1)
		})
	}
}

func TestCatalogUsecase_Dashboard(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockBackend := mocks.NewMockBackend(ctrl)
	uc := usecase.NewCatalogUsecase(mockBackend, nil)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		stats := catalog.ComputeStats(sample())
		mockBackend.EXPECT().Stats(ctx).Return(stats, nil)
		mockBackend.EXPECT().List(ctx).Return(sample(), nil)

		dash, err := uc.Dashboard(ctx)

		assert.NoError(t, err)
		assert.Equal(t, 3, dash.Stats.TotalLivros)
		assert.Equal(t, 1, dash.Stats.LivrosEmprestados)
		assert.Equal(t, []int{3, 2, 1}, ids(dash.Recent))
	})

	t.Run("error - stats unavailable", func(t *testing.T) {
		mockBackend.EXPECT().Stats(ctx).Return(catalog.Stats{}, &api.StatusError{StatusCode: 503, Message: "down"})

		_, err := uc.Dashboard(ctx)

		assert.Error(t, err)
	})
}

func TestRecent(t *testing.T) {
	all := sample()
	assert.Equal(t, []int{3, 2}, ids(usecase.Recent(all, 2)))
	assert.Equal(t, []int{1, 2, 3}, ids(all), "input must keep its order")
	assert.Empty(t, usecase.Recent(nil, usecase.RecentCount))
}

func ids(entries []catalog.Entry) []int {
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}
