package service

import (
	"strings"

	"github.com/BerniceZTT/outreach_crm/models"
)

// 붙여넣기 텍스트의 항목 이름
var pasteLabels = map[string]string{
	"이름":    "name",
	"회사":    "company",
	"사업자번호": "business_number",
	"웹사이트":  "website",
	"이메일":   "email",
	"전화":    "phone",
}

// ParseCustomerText "항목 이름" 줄 다음 줄을 값으로 읽는다.
// 다음 줄이 또 다른 항목 이름이면 값이 없는 것으로 본다
func ParseCustomerText(text string) models.CustomerInput {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	values := map[string]string{}
	for i := 0; i+1 < len(lines); i++ {
		field, ok := pasteLabels[lines[i]]
		if !ok {
			continue
		}
		if _, isLabel := pasteLabels[lines[i+1]]; isLabel {
			continue
		}
		values[field] = lines[i+1]
	}

	return models.CustomerInput{
		Name:           values["name"],
		Company:        values["company"],
		BusinessNumber: values["business_number"],
		Website:        values["website"],
		Email:          values["email"],
		Phone:          values["phone"],
	}
}
