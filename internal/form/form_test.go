package form

import (
	"context"
	"errors"
	"testing"

	"hqcatalog/internal/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSaver struct {
	mock.Mock
}

func (m *mockSaver) Create(ctx context.Context, e catalog.Entry) (catalog.Entry, error) {
	args := m.Called(ctx, e)
	return args.Get(0).(catalog.Entry), args.Error(1)
}

func (m *mockSaver) Update(ctx context.Context, id int, e catalog.Entry) (catalog.Entry, error) {
	args := m.Called(ctx, id, e)
	return args.Get(0).(catalog.Entry), args.Error(1)
}

var existing = []catalog.Entry{
	{ID: 1, Titulo: "Batman: Ano Um", Autor: "Frank Miller", Ano: 2023},
	{ID: 2, Titulo: "Saga Vol. 1", Autor: "Brian K. Vaughan", Ano: 2023},
}

func validValues() Values {
	return Values{Titulo: "  Watchmen ", Autor: "Alan Moore", Ano: "1987", NumeroEdicao: "", Editora: "DC"}
}

func TestController_OpenCreate(t *testing.T) {
	c := NewController(NewValidator(fixedClock), &mockSaver{})
	c.OpenEdit(existing[0])
	c.OpenCreate()

	assert.Equal(t, Creating, c.Mode())
	assert.True(t, c.Open())
	assert.Equal(t, Values{}, c.Values())
	assert.Empty(t, c.Errors())
	assert.Equal(t, "Adicionar Novo Livro", c.Title())
}

func TestController_OpenEditSkipsNulls(t *testing.T) {
	c := NewController(NewValidator(fixedClock), &mockSaver{})
	c.OpenEdit(catalog.Entry{ID: 5, Titulo: "Saga", Autor: "BKV", Ano: 2012})

	assert.Equal(t, Editing, c.Mode())
	assert.Equal(t, 5, c.EditID())
	assert.Equal(t, "2012", c.Values().Ano)
	assert.Equal(t, "", c.Values().NumeroEdicao)
	assert.Equal(t, "Atualizar Livro", c.SubmitLabel())
}

func TestController_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("create success closes form", func(t *testing.T) {
		saver := &mockSaver{}
		saver.On("Create", ctx, catalog.Entry{Titulo: "Watchmen", Autor: "Alan Moore", Ano: 1987, Editora: "DC"}).
			Return(catalog.Entry{ID: 10, Titulo: "Watchmen"}, nil).Once()

		c := NewController(NewValidator(fixedClock), saver)
		c.OpenCreate()
		saved, err := c.Submit(ctx, validValues(), existing)

		require.NoError(t, err)
		assert.Equal(t, 10, saved.ID)
		assert.Equal(t, Closed, c.Mode())
		saver.AssertExpectations(t)
	})

	t.Run("validation failure keeps form open and makes no call", func(t *testing.T) {
		saver := &mockSaver{}
		c := NewController(NewValidator(fixedClock), saver)
		c.OpenCreate()

		values := validValues()
		values.Titulo = "ab"
		_, err := c.Submit(ctx, values, existing)

		var verrs ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Equal(t, Creating, c.Mode())
		assert.Equal(t, "Título deve ter entre 3 e 90 caracteres", c.Errors()["titulo"])
		assert.Equal(t, "ab", c.Values().Titulo)
		saver.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("duplicate title rejected", func(t *testing.T) {
		saver := &mockSaver{}
		c := NewController(NewValidator(fixedClock), saver)
		c.OpenCreate()

		values := validValues()
		values.Titulo = "batman: ano um"
		_, err := c.Submit(ctx, values, existing)

		require.Error(t, err)
		assert.Equal(t, DuplicateTitleMessage, c.Errors()["titulo"])
		saver.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("edit keeps own title and updates", func(t *testing.T) {
		saver := &mockSaver{}
		saver.On("Update", ctx, 1, mock.MatchedBy(func(e catalog.Entry) bool {
			return e.Titulo == "Batman: Ano Um" && e.Ano == 2023
		})).Return(existing[0], nil).Once()

		c := NewController(NewValidator(fixedClock), saver)
		c.OpenEdit(existing[0])
		_, err := c.Submit(ctx, c.Values(), existing)

		require.NoError(t, err)
		assert.False(t, c.Open())
		saver.AssertExpectations(t)
	})

	t.Run("backend error keeps form open", func(t *testing.T) {
		saver := &mockSaver{}
		saver.On("Create", ctx, mock.Anything).Return(catalog.Entry{}, errors.New("Título já existe")).Once()

		c := NewController(NewValidator(fixedClock), saver)
		c.OpenCreate()
		_, err := c.Submit(ctx, validValues(), nil)

		require.Error(t, err)
		assert.Equal(t, Creating, c.Mode())
	})

	t.Run("closed form rejects submit", func(t *testing.T) {
		c := NewController(NewValidator(fixedClock), &mockSaver{})
		_, err := c.Submit(ctx, validValues(), nil)
		assert.ErrorIs(t, err, ErrClosed)
	})
}

func TestValues_Input(t *testing.T) {
	in := Values{Titulo: " A B C ", Ano: "abc", NumeroEdicao: "x"}.Input()
	assert.Equal(t, "A B C", in.Titulo)
	assert.Equal(t, 0, in.Ano)
	require.NotNil(t, in.NumeroEdicao)
	assert.Equal(t, 0, *in.NumeroEdicao)
}

func TestSuccessMessage(t *testing.T) {
	assert.Equal(t, "Livro adicionado com sucesso!", SuccessMessage(Creating))
	assert.Equal(t, "Livro atualizado com sucesso!", SuccessMessage(Editing))
}
