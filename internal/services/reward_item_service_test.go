package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeninja-coin/admin-service/internal/events"
	"github.com/codeninja-coin/admin-service/internal/models"
)

func createTestItem(t *testing.T, s *testServices, title string, price int) *models.RewardItem {
	t.Helper()

	item, err := s.rewardItem.Create(context.Background(), &models.RewardItemCreateRequest{
		Title: title,
		Price: models.IntOf(price),
	})
	require.NoError(t, err)
	return item
}

func TestRewardItemService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults stock and nulls empty text", func(t *testing.T) {
		s := setupTestServices(t)

		var req models.RewardItemCreateRequest
		require.NoError(t, json.Unmarshal([]byte(`{"title":"Sticker","description":"","imageUrl":"","price":"3"}`), &req))

		item, err := s.rewardItem.Create(ctx, &req)
		require.NoError(t, err)
		assert.Equal(t, "Sticker", item.Title)
		assert.Equal(t, 3, item.Price)
		assert.Equal(t, 0, item.Stock)
		assert.Nil(t, item.Description)
		assert.Nil(t, item.ImageURL)
		assert.Len(t, s.publisher.EventsOfType(events.RewardItemCreated), 1)
	})

	t.Run("rejects invalid payloads and persists nothing", func(t *testing.T) {
		s := setupTestServices(t)

		tests := []struct {
			name    string
			body    string
			message string
		}{
			{name: "price zero", body: `{"title":"Sticker","price":0}`, message: "Title and price are required; price must be a positive integer"},
			{name: "negative price", body: `{"title":"Sticker","price":-4}`, message: "Title and price are required; price must be a positive integer"},
			{name: "missing price", body: `{"title":"Sticker"}`, message: "Title and price are required"},
			{name: "non numeric price", body: `{"title":"Sticker","price":"free"}`, message: "Title and price are required"},
			{name: "missing title", body: `{"price":5}`, message: "Title and price are required"},
			{name: "markup only title", body: `{"title":"<script></script>","price":5}`, message: "Title and price are required"},
			{name: "negative stock", body: `{"title":"Sticker","price":5,"stock":-1}`, message: "Stock must be a non-negative integer"},
			{name: "bad image url", body: `{"title":"Sticker","price":5,"imageUrl":"not a url"}`, message: "Invalid reward item data"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				var req models.RewardItemCreateRequest
				require.NoError(t, json.Unmarshal([]byte(tt.body), &req))

				_, err := s.rewardItem.Create(ctx, &req)
				var reqErr *RequestValidationError
				require.True(t, errors.As(err, &reqErr), "got %v", err)
				assert.Equal(t, tt.message, reqErr.Message)
				assert.ErrorIs(t, err, ErrValidationFailed)
			})
		}

		items, err := s.rewardItem.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, items)
	})
}

func TestRewardItemService_GetAndDelete(t *testing.T) {
	s := setupTestServices(t)
	ctx := context.Background()

	_, err := s.rewardItem.GetByID(ctx, "never-created")
	assert.ErrorIs(t, err, ErrRewardItemNotFound)

	item := createTestItem(t, s, "Headband", 10)

	got, err := s.rewardItem.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Headband", got.Title)

	require.NoError(t, s.rewardItem.Delete(ctx, item.ID))
	assert.Len(t, s.publisher.EventsOfType(events.RewardItemDeleted), 1)

	_, err = s.rewardItem.GetByID(ctx, item.ID)
	assert.ErrorIs(t, err, ErrRewardItemNotFound)
	assert.ErrorIs(t, s.rewardItem.Delete(ctx, item.ID), ErrRewardItemNotFound)
}

func TestRewardItemService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("applies only provided fields", func(t *testing.T) {
		s := setupTestServices(t)
		item := createTestItem(t, s, "Water Bottle", 8)

		var req models.RewardItemUpdateRequest
		require.NoError(t, json.Unmarshal([]byte(`{"price":"12","stock":4}`), &req))

		updated, err := s.rewardItem.Update(ctx, item.ID, &req)
		require.NoError(t, err)
		assert.Equal(t, "Water Bottle", updated.Title)
		assert.Equal(t, 12, updated.Price)
		assert.Equal(t, 4, updated.Stock)
		assert.False(t, updated.UpdatedAt.Before(item.UpdatedAt))
		assert.Len(t, s.publisher.EventsOfType(events.RewardItemUpdated), 1)
	})

	t.Run("explicit null clears description", func(t *testing.T) {
		s := setupTestServices(t)

		desc := "Blue"
		item, err := s.rewardItem.Create(ctx, &models.RewardItemCreateRequest{Title: "Belt Bag", Description: &desc, Price: models.IntOf(20)})
		require.NoError(t, err)
		require.NotNil(t, item.Description)

		updated, err := s.rewardItem.Update(ctx, item.ID, &models.RewardItemUpdateRequest{Description: models.NullString()})
		require.NoError(t, err)
		assert.Nil(t, updated.Description)
		assert.Equal(t, 20, updated.Price)
	})

	t.Run("invalid fields change nothing", func(t *testing.T) {
		s := setupTestServices(t)
		item := createTestItem(t, s, "Keychain", 2)

		tests := []struct {
			name    string
			req     models.RewardItemUpdateRequest
			message string
		}{
			{name: "empty title", req: models.RewardItemUpdateRequest{Title: models.StringOf(" "), Price: models.IntOf(9)}, message: "Title must not be empty"},
			{name: "zero price", req: models.RewardItemUpdateRequest{Price: models.IntOf(0)}, message: "Price must be a positive integer"},
			{name: "negative stock", req: models.RewardItemUpdateRequest{Stock: models.IntOf(-2)}, message: "Stock must be a non-negative integer"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				req := tt.req
				_, err := s.rewardItem.Update(ctx, item.ID, &req)
				var reqErr *RequestValidationError
				require.True(t, errors.As(err, &reqErr), "got %v", err)
				assert.Equal(t, tt.message, reqErr.Message)
			})
		}

		current, err := s.rewardItem.GetByID(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, "Keychain", current.Title)
		assert.Equal(t, 2, current.Price)
	})

	t.Run("unknown item", func(t *testing.T) {
		s := setupTestServices(t)

		_, err := s.rewardItem.Update(ctx, "missing", &models.RewardItemUpdateRequest{Stock: models.IntOf(1)})
		assert.ErrorIs(t, err, ErrRewardItemNotFound)
		assert.Empty(t, s.publisher.EventsOfType(events.RewardItemUpdated))
	})

	t.Run("unknown item wins over invalid fields", func(t *testing.T) {
		s := setupTestServices(t)

		_, err := s.rewardItem.Update(ctx, "missing", &models.RewardItemUpdateRequest{Price: models.IntOf(0), Title: models.StringOf("")})
		assert.ErrorIs(t, err, ErrRewardItemNotFound)
		assert.False(t, IsValidationError(err))
	})
}
