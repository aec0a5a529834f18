package mcpserver

// CardFormatContract describes the word card fields and the Markdown export
// layout that import_markdown accepts.
const CardFormatContract = `# Word Vault Card Format

Every saved word is one card with these fields.

| Field | JSON key | Notes |
|-------|----------|-------|
| Word | ` + "`word`" + ` | REQUIRED, trimmed, never empty |
| Meaning | ` + "`meaning`" + ` | dictionary definition, may be empty |
| My understanding | ` + "`mnemonic`" + ` | the reader's own note |
| Context | ` + "`context`" + ` | where the word was seen (defaults to the page URL) |
| Source | ` + "`sourceUrl`" + ` | page URL |
| Date | ` + "`dateAdded`" + ` | ISO-8601 timestamp or date |

## Markdown export

Cards are exported newest first, one "## word" section each:

` + "```" + `markdown
# Word Vault

*Exported on June 3, 2024*

Total words: 1

---

## ephemeral

**Date:** May 1, 2024

*Auto explanation:* lasting a very short time

**My understanding:** here today, gone tomorrow

*Context:* a talk about fashion

[Source](https://example.com/article)

---
` + "```" + `

## Rules

1. Lines with an empty field are omitted.
2. ` + "`**Date:**`" + ` is always present. "Unknown date" means the card had none.
3. A line without a label continues the previous field.
4. Import appends cards; it never replaces the vault.
`
