package browser

import (
	"encoding/json"
	"fmt"

	"github.com/go-scripts/referral/internal/locator"
)

// jsMatches returns a JS function expression `(root) => Element[]` listing
// the matches of l below root
func jsMatches(l locator.Locator) string {
	query, _ := json.Marshal(l.Query)

	var all string
	if l.Strategy == locator.XPath {
		all = fmt.Sprintf(`((root) => {
			const snap = document.evaluate(%s, root, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
			const out = [];
			for (let i = 0; i < snap.snapshotLength; i++) {
				out.push(snap.snapshotItem(i));
			}
			return out;
		})`, query)
	} else {
		all = fmt.Sprintf(`((root) => Array.from(root.querySelectorAll(%s)))`, query)
	}

	if !l.Visible {
		return all
	}
	return fmt.Sprintf(`((root) => %s(root).filter(el => el.getClientRects().length > 0))`, all)
}

// jsPick returns a JS function expression `(els) => Element|null`
func jsPick(l locator.Locator) string {
	if l.Pick == locator.Last {
		return `((els) => els.length ? els[els.length - 1] : null)`
	}
	return `((els) => els.length ? els[0] : null)`
}

func jsCount(l locator.Locator) string {
	return fmt.Sprintf(`%s(document).length`, jsMatches(l))
}

func jsScrollToBottom(l locator.Locator) string {
	return fmt.Sprintf(`(() => {
		const el = %s(%s(document));
		if (!el) {
			return false;
		}
		el.scrollTo({ top: el.scrollHeight, behavior: "smooth" });
		return true;
	})()`, jsPick(l), jsMatches(l))
}

// getAttributesJS returns a JS function reading the named attributes of an
// element, or all of them when none are named
func getAttributesJS(attributeNames []string) string {
	attrNamesJSON, _ := json.Marshal(attributeNames)

	return fmt.Sprintf(`
    function(el) {
        const result = {};
        const attrs = %s;

        if (!attrs || attrs.length === 0) {
            if (el && el.attributes) {
                for (let i = 0; i < el.attributes.length; i++) {
                    const attr = el.attributes[i];
                    result[attr.name] = attr.value;
                }
            }
        } else {
            for (const attrName of attrs) {
                if (el && el.hasAttribute(attrName)) {
                    result[attrName] = el.getAttribute(attrName);
                }
            }
        }

        return result;
    }`, attrNamesJSON)
}

// extraction is the JSON document produced by jsExtract
type extraction struct {
	Found bool `json:"found"`
	Items []struct {
		HTML       string            `json:"html"`
		Text       string            `json:"text"`
		Attributes map[string]string `json:"attributes"`
	} `json:"items"`
}

func jsExtract(scope, item locator.Locator, attributeNames []string) string {
	return fmt.Sprintf(`
	(() => {
		const scope = %s(%s(document));
		if (!scope) {
			return JSON.stringify({ found: false, items: [] });
		}
		const getAttrs = %s;
		const items = %s(scope).map(el => ({
			html: el.innerHTML,
			text: (el.textContent || "").trim(),
			attributes: getAttrs(el)
		}));
		return JSON.stringify({ found: true, items: items });
	})()
	`, jsPick(scope), jsMatches(scope), getAttributesJS(attributeNames), jsMatches(item))
}
