package web

import (
	"strings"

	"github.com/codeninja-coin/admin-service/internal/models"
)

// FilterStudents keeps the students whose "first last" name contains query,
// ignoring case. The input slice is never modified; an empty query returns it
// unchanged.
func FilterStudents(students []*models.Student, query string) []*models.Student {
	query = strings.ToLower(query)
	if query == "" {
		return students
	}

	matched := make([]*models.Student, 0, len(students))
	for _, s := range students {
		if strings.Contains(strings.ToLower(s.FirstName+" "+s.LastName), query) {
			matched = append(matched, s)
		}
	}
	return matched
}

// FilterRewardItems keeps the items whose title contains query, ignoring case
func FilterRewardItems(items []*models.RewardItem, query string) []*models.RewardItem {
	query = strings.ToLower(query)
	if query == "" {
		return items
	}

	matched := make([]*models.RewardItem, 0, len(items))
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Title), query) {
			matched = append(matched, item)
		}
	}
	return matched
}
