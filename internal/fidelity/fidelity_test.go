package fidelity

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/EmilStenstrom/justhtml-xss-bench/internal/vector"
)

func spec(tag string, attrs ...string) vector.TagSpec {
	return vector.TagSpec{Tag: tag, Attrs: attrs}
}

func TestEmptyExpectedMatchesTextOnly(t *testing.T) {
	res, err := Check("just text, no tags", nil)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.Lossy {
		t.Fatalf("want not lossy, got %+v", res)
	}
}

func TestEmptyExpectedRejectsSurvivingElement(t *testing.T) {
	res, err := Check("<b>keep</b>", []vector.TagSpec{})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !res.Lossy {
		t.Fatal("want lossy when an unexpected element survives")
	}
}

func TestNonEmptyExactMatch(t *testing.T) {
	res, err := Check(`<a href="#">x</a>`, []vector.TagSpec{spec("a", "href")})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.Lossy {
		t.Fatalf("want not lossy, got %+v", res)
	}
}

func TestAttributePresenceOnlyNoValueCheck(t *testing.T) {
	res, err := Check(`<img src="x">`, []vector.TagSpec{spec("img", "src")})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.Lossy {
		t.Fatalf("presence of attribute should suffice regardless of value: %+v", res)
	}
}

func TestMissingRequiredAttributeIsLossy(t *testing.T) {
	res, err := Check(`<img>`, []vector.TagSpec{spec("img", "src")})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !res.Lossy {
		t.Fatal("want lossy: required attribute missing")
	}
}

func TestDuplicateSpecsRequireDistinctElementsInOrder(t *testing.T) {
	html := `<div id="a"><div id="b"><div class="c">X</div></div></div>`
	expected := []vector.TagSpec{spec("div", "id"), spec("div", "id"), spec("div", "class")}
	res, err := Check(html, expected)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.Lossy {
		t.Fatalf("want not lossy: %+v", res)
	}
}

func TestDuplicateSpecsFailWhenOnlyOneMatchExists(t *testing.T) {
	html := `<div id="a"><div style="color:red">X</div></div>`
	expected := []vector.TagSpec{spec("div", "id"), spec("div", "id")}
	res, err := Check(html, expected)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !res.Lossy {
		t.Fatal("want lossy: only one of two div[id] positions matches")
	}
}

func TestExtraSurvivingElementIsLossy(t *testing.T) {
	res, err := Check(`<b>ok</b><i>extra</i>`, []vector.TagSpec{spec("b")})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !res.Lossy {
		t.Fatal("want lossy: length mismatch due to extra element")
	}
}

func TestTagNameComparisonIsCaseInsensitive(t *testing.T) {
	res, err := Check(`<IMG SRC="x">`, []vector.TagSpec{spec("img", "src")})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.Lossy {
		t.Fatalf("want not lossy: %+v", res)
	}
}

func TestCheckIsPure(t *testing.T) {
	html := `<a href="#" style="x">y</a>`
	expected := []vector.TagSpec{spec("a", "href")}
	r1, _ := Check(html, expected)
	r2, _ := Check(html, expected)
	if diff := cmp.Diff(r1, r2); diff != "" {
		t.Fatalf("expected identical verdicts (-r1 +r2):\n%s", diff)
	}
}
