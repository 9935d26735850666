package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmails(t *testing.T) {
	body := `Reach us at info@site.com or sales@site.com.
	Footer: info@site.com`

	assert.ElementsMatch(t, []string{"info@site.com", "sales@site.com"}, Emails(body))
}

func TestEmailsNoneFound(t *testing.T) {
	assert.Empty(t, Emails("no addresses on this page, not even an @ sign alone"))
}

func TestPhones(t *testing.T) {
	body := "Call us at +1 (555) 123-4567 or email info@site.com"

	phones := Phones(body)
	assert.Len(t, phones, 1)
	assert.Equal(t, "+1 (555) 123-4567", phones[0])
}

func TestPhonesRequireSevenCharacters(t *testing.T) {
	assert.Empty(t, Phones("room 12345"))
	assert.NotEmpty(t, Phones("dial 555-123-4567 now"))
}

func TestContactPageExample(t *testing.T) {
	body := "Call us at +1 (555) 123-4567 or email info@site.com"

	assert.Equal(t, []string{"info@site.com"}, Emails(body))
	assert.Equal(t, []string{"+1 (555) 123-4567"}, Phones(body))
}

func TestNormalize(t *testing.T) {
	in := []string{"a@x.com", "a@x.com", " b@x.com ", "", "  "}

	assert.Equal(t, []string{"a@x.com", "b@x.com"}, Normalize(in))
}

func TestNormalizeEmpty(t *testing.T) {
	assert.Empty(t, Normalize(nil))
	assert.Empty(t, Normalize([]string{""}))
}
