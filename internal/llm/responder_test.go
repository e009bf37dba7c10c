package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		prompt   string
		expected ResponseCategory
	}{
		{prompt: "Renew my DRIVING license", expected: CategoryLicense},
		{prompt: "ابي اجدد رخصتي", expected: CategoryLicense},
		{prompt: "عندك إشعار من التنبيه الاستباقي: تنبيه استباقي", expected: CategoryAlert},
		{prompt: "my passport expired", expected: CategoryPassport},
		{prompt: "جواز السفر", expected: CategoryPassport},
		{prompt: "الهوية الوطنية", expected: CategoryNationalID},
		{prompt: "license and passport", expected: CategoryLicense},
		{prompt: "good morning", expected: CategoryDefault},
		{prompt: "", expected: CategoryDefault},
	}

	for _, tt := range tests {
		t.Run(tt.prompt, func(t *testing.T) {
			assert.Equal(t, tt.expected, Categorize(tt.prompt))
		})
	}
}

func TestKeywordResponderReturnsCopies(t *testing.T) {
	responder := KeywordResponder{}

	first, err := responder.Respond(context.Background(), "passport")
	require.NoError(t, err)
	require.NotEmpty(t, first)
	first[0] = "mutated"

	second, err := responder.Respond(context.Background(), "passport")
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", second[0])
}

func TestEveryCategoryHasTokens(t *testing.T) {
	for _, category := range []ResponseCategory{
		CategoryLicense, CategoryAlert, CategoryPassport, CategoryNationalID, CategoryDefault,
	} {
		assert.NotEmpty(t, cannedResponses[category], category)
	}
}
