package validator

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type inputValidator struct{}

// Usecaseは interface を依存注入
func NewInputValidator() usecase.InputValidator {
	return &inputValidator{}
}

// 注文者情報の必須チェック
func (v *inputValidator) ValidateCustomer(c model.CustomerInfo) []string {
	var fields []string
	required := []struct {
		name  string
		value string
	}{
		{"customer_info.name", c.Name},
		{"customer_info.email", c.Email},
		{"customer_info.phone", c.Phone},
		{"customer_info.address", c.Address},
		{"customer_info.city", c.City},
		{"customer_info.postal_code", c.PostalCode},
		{"customer_info.country", c.Country},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			fields = append(fields, f.name)
		}
	}

	// email形式
	if e := strings.TrimSpace(c.Email); e != "" && !isEmailLike(e) {
		fields = append(fields, "customer_info.email")
	}
	// 国は ISO 3166-1 alpha-2
	if cc := strings.TrimSpace(c.Country); cc != "" && len(cc) != 2 {
		fields = append(fields, "customer_info.country")
	}
	if utf8.RuneCountInString(c.Name) > 255 {
		fields = append(fields, "customer_info.name")
	}
	return fields
}

// レビュー投稿の入力を検証
func (v *inputValidator) ValidateReview(in usecase.ReviewInput) []string {
	var fields []string
	if n := utf8.RuneCountInString(strings.TrimSpace(in.AuthorName)); n == 0 || n > 100 {
		fields = append(fields, "author_name")
	}
	if in.Rating < 1 || in.Rating > 5 {
		fields = append(fields, "rating")
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(in.Body)); n == 0 || n > 2000 {
		fields = append(fields, "body")
	}
	return fields
}

// 簡易メール形式をチェック
func isEmailLike(s string) bool {
	return emailRe.MatchString(s)
}
