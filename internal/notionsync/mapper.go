package notionsync

import (
	"github.com/jomei/notionapi"

	"github.com/dvloznov/finance-insights/internal/domain"
)

// Property names of the notifications database.
const (
	PropTitle          = "Title"
	PropNotificationID = "Notification ID"
	PropUser           = "User"
	PropMessage        = "Message"
	PropType           = "Type"
	PropPriority       = "Priority"
	PropReference      = "Reference"
	PropLink           = "Link"
	PropRead           = "Read"
	PropCreated        = "Created"
)

// NotificationToNotionProperties converts a notification to Notion page
// properties.
func NotificationToNotionProperties(n domain.Notification) notionapi.Properties {
	created := notionapi.Date(n.CreatedAt)

	props := notionapi.Properties{
		PropTitle: notionapi.TitleProperty{
			Title: richText(n.Title),
		},
		PropNotificationID: notionapi.RichTextProperty{
			RichText: richText(n.ID),
		},
		PropUser: notionapi.SelectProperty{
			Select: notionapi.Option{Name: n.UserID},
		},
		PropType: notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(n.Type)},
		},
		PropPriority: notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(n.Priority)},
		},
		PropRead: notionapi.CheckboxProperty{
			Checkbox: n.IsRead,
		},
		PropCreated: notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &created},
		},
	}

	if n.Message != "" {
		props[PropMessage] = notionapi.RichTextProperty{RichText: richText(n.Message)}
	}
	if n.HasReference() {
		props[PropReference] = notionapi.RichTextProperty{
			RichText: richText(string(n.ReferenceType) + ":" + n.ReferenceID),
		}
	}
	if n.LinkPath != "" {
		label := n.LinkLabel
		if label == "" {
			label = n.LinkPath
		}
		props[PropLink] = notionapi.RichTextProperty{RichText: richText(label + " (" + n.LinkPath + ")")}
	}

	return props
}

// readStateProperties is the minimal update applied when only the read flag
// changed.
func readStateProperties(read bool) notionapi.Properties {
	return notionapi.Properties{
		PropRead: notionapi.CheckboxProperty{Checkbox: read},
	}
}

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{
		{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: s},
		},
	}
}

// extractNotificationID extracts the notification ID from a Notion page's
// properties. Returns empty string if not found.
func extractNotificationID(page notionapi.Page) string {
	if prop, ok := page.Properties[PropNotificationID]; ok {
		if rt, ok := prop.(*notionapi.RichTextProperty); ok {
			if len(rt.RichText) > 0 {
				return rt.RichText[0].PlainText
			}
		}
	}
	return ""
}

func extractUser(page notionapi.Page) string {
	if prop, ok := page.Properties[PropUser]; ok {
		if sel, ok := prop.(*notionapi.SelectProperty); ok {
			return sel.Select.Name
		}
	}
	return ""
}

func extractRead(page notionapi.Page) bool {
	if prop, ok := page.Properties[PropRead]; ok {
		if cb, ok := prop.(*notionapi.CheckboxProperty); ok {
			return cb.Checkbox
		}
	}
	return false
}
