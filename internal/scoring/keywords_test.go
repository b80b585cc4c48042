package scoring

import (
	"reflect"
	"testing"
)

func TestExtractTechKeywords(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "simple terms",
			text: "Build a React frontend with TypeScript",
			want: []string{"react", "frontend", "typescript"},
		},
		{
			name: "case insensitive",
			text: "PYTHON and Docker and kubernetes",
			want: []string{"python", "docker", "kubernetes"},
		},
		{
			name: "word boundaries",
			text: "golang restful designer",
			want: []string{},
		},
		{
			name: "duplicates preserved",
			text: "java java java",
			want: []string{"java", "java", "java"},
		},
		{
			name: "multiword term",
			text: "a machine learning pipeline",
			want: []string{"machine learning"},
		},
		{
			name: "symbol terms",
			text: "modern c++ and C# services",
			want: []string{"c++", "c#"},
		},
		{
			name: "no keywords",
			text: "organizzare un evento per il team",
			want: []string{},
		},
		{
			name: "empty text",
			text: "",
			want: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractTechKeywords(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractTechKeywords(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractTechKeywordsDoesNotSplitLongerWords(t *testing.T) {
	// "javascript" must not also yield "java"; "restful" must not yield "rest".
	got := ExtractTechKeywords("javascript restful")
	want := []string{"javascript"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
