package engine

import (
	"fmt"
	"strings"

	"github.com/zapfield/zapfield/internal/models"
)

// keycaps are the enclosed-digit glyphs used for menu positions 0–9.
// Positions 10 and up render as a literal bracketed number.
var keycaps = [10]string{
	"0️⃣", "1️⃣", "2️⃣", "3️⃣", "4️⃣",
	"5️⃣", "6️⃣", "7️⃣", "8️⃣", "9️⃣",
}

// positionGlyph renders a 1-based menu position.
func positionGlyph(n int) string {
	if n >= 0 && n <= 9 {
		return keycaps[n]
	}
	return fmt.Sprintf("[%d]", n)
}

// menuLine renders one menu entry. The rendering is user-facing and fixed:
// position glyph, entry emoji (when present) and entry name, space-joined.
func menuLine(position int, emoji, name string) string {
	if emoji == "" {
		return fmt.Sprintf("%s %s", positionGlyph(position), name)
	}
	return fmt.Sprintf("%s %s %s", positionGlyph(position), emoji, name)
}

// renderMainMenu renders the category listing shown at the root level.
func renderMainMenu(cats []models.Category) string {
	var b strings.Builder
	b.WriteString("📋 *Menu principal*\n\n")
	for i, cat := range cats {
		b.WriteString(menuLine(i+1, cat.Emoji, cat.Name))
		b.WriteByte('\n')
	}
	b.WriteString("\nDigite o número da opção desejada.")
	return b.String()
}

// renderSubcategoryMenu renders a category's subcategory listing.
func renderSubcategoryMenu(cat *models.Category, subs []models.Subcategory) string {
	var b strings.Builder
	if cat.Emoji != "" {
		fmt.Fprintf(&b, "*%s %s*\n\n", cat.Emoji, cat.Name)
	} else {
		fmt.Fprintf(&b, "*%s*\n\n", cat.Name)
	}
	for i, sub := range subs {
		b.WriteString(menuLine(i+1, sub.Emoji, sub.Name))
		b.WriteByte('\n')
	}
	b.WriteString("\nDigite o número da opção ou *VOLTAR*.")
	return b.String()
}

// renderItemMenu renders a subcategory's item listing.
func renderItemMenu(sub *models.Subcategory, items []models.Item) string {
	var b strings.Builder
	if sub.Emoji != "" {
		fmt.Fprintf(&b, "*%s %s*\n\n", sub.Emoji, sub.Name)
	} else {
		fmt.Fprintf(&b, "*%s*\n\n", sub.Name)
	}
	if len(items) == 0 {
		b.WriteString("Nenhuma opção disponível no momento.\n")
	}
	for i, item := range items {
		b.WriteString(menuLine(i+1, item.Emoji, item.Name))
		b.WriteByte('\n')
	}
	b.WriteString("\nDigite o número da opção ou *VOLTAR*.")
	return b.String()
}
