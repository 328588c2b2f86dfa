package screening

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

const systemPrompt = "You are a compliance analyst specializing in adverse media research. " +
	"Provide accurate, factual information about negative news and compliance issues."

// BuildPrompt returns the user prompt asking for adverse media about entity
// published between from and to.
func BuildPrompt(entity string, from, to time.Time) string {
	return fmt.Sprintf(`You are a compliance analyst conducting adverse media research. Search for and summarize any negative news, legal issues, regulatory actions, or controversies related to "%s" between %s and %s.

Please provide:
1. A list of specific adverse media findings (if any)
2. For each finding, include:
   - Title/headline
   - Brief description
   - Date
   - Source
   - Severity level (Critical, High, Medium, Low)
   - Category (Legal, Regulatory, Fraud, Corruption, Money Laundering, Sanctions, Reputational, Other)

Format the response as a JSON array of findings. If no adverse media is found, return an empty array.

Example format:
[
  {
    "title": "Company fined for AML violations",
    "description": "Brief description of the issue",
    "date": "2024-01-15",
    "source": "Financial Times",
    "severity": "High",
    "category": "Regulatory"
  }
]

Return ONLY the JSON array, no additional text.`, entity, from.Format(dateLayout), to.Format(dateLayout))
}
