// Package mappingtest renders mapping field fragments shaped like the ones the
// field creation service returns, for use in tests.
package mappingtest

import (
	"fmt"
	"strings"
)

// Row renders a summary row for key.
func Row(key string) string {
	return fmt.Sprintf(`<div class="row" data-source="%[1]s">`+
		`<div class="fieldhover" data-source="%[1]s"></div>`+
		`<div data-field="name">%[1]s</div>`+
		`<div data-field="description"><input value="%[1]s description"></div>`+
		`<span class="glyphicon glyphicon-modify"></span>`+
		`<span class="glyphicon glyphicon-plus"></span>`+
		`<span class="glyphicon glyphicon-remove"></span>`+
		`</div>`, key)
}

// Detail renders a detail panel for key in the given category. Unknown
// categories get a panel with just a name input.
func Detail(key, category string) string {
	var body string
	switch category {
	case "source":
		body = original(strings.ToUpper(key)) +
			textInput("name", key) +
			selectInput("type", "text", "text", "keyword", "date") +
			selectInput("mapped", "True", "True", "False") +
			selectInput("analyzer", "standard", "standard", "french")
	case "remplacement":
		body = original(strings.ToUpper(key)) +
			textInput("name", key) +
			textInput("type", "remplacement") +
			selectInput("keep_original", "True", "True", "False") +
			selectInput("use_first_column", "False", "True", "False") +
			selectInput("filename", "", "")
	case "phonetic":
		body = original(strings.ToUpper(key)) +
			textInput("name", key) +
			selectInput("filename", "", "") +
			toggle("soundex", true) +
			toggle("metaphone", false) +
			toggle("metaphone3", false)
	case "fixed_value":
		body = textInput("name", key) +
			`<div class="row field fixed-value disabled" data-field="value"><input data-field="value" value="" data-original-value=""></div>`
	default:
		body = textInput("name", key)
	}
	return fmt.Sprintf(`<div class="field-preview" data-source="%s" data-category="%s">%s</div>`, key, category, body)
}

// Page renders the rows container and the details container of a page holding
// the given fields, passed as key/category pairs.
func Page(pairs ...string) (rows string, details string) {
	var r, d strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		r.WriteString(Row(pairs[i]))
		d.WriteString(Detail(pairs[i], pairs[i+1]))
	}
	return r.String(), d.String()
}

func original(col string) string {
	return fmt.Sprintf(`<div class="row" data-field="original_field" data-original-value="%[1]s">%[1]s</div>`, col)
}

func textInput(field, value string) string {
	return fmt.Sprintf(`<div class="row field" data-field="%[1]s"><input data-field="%[1]s" value="%[2]s" data-original-value="%[2]s"></div>`, field, value)
}

func selectInput(field, selected string, options ...string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<div class="row field" data-field="%[1]s"><select data-field="%[1]s" data-original-value="%[2]s">`, field, selected)
	for _, o := range options {
		sel := ""
		if o == selected {
			sel = " selected"
		}
		fmt.Fprintf(&sb, `<option value="%[1]s"%[2]s>%[1]s</option>`, o, sel)
	}
	sb.WriteString(`</select></div>`)
	return sb.String()
}

func toggle(field string, on bool) string {
	checked := ""
	if on {
		checked = " checked"
	}
	return fmt.Sprintf(`<div class="row field" data-field="%s"><label><input type="checkbox"%s></label></div>`, field, checked)
}
