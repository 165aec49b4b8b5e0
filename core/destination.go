package core

// ResourceKind selects the redirect family of an outcome.
type ResourceKind int

const (
	KindPicture ResourceKind = iota + 1
	KindNote
)

// Source is the listing view a user came from. Only the enumerated values are
// ever produced by ParseSource.
type Source string

const (
	SourceDefault Source = ""
	SourceMyPage  Source = "MyPage"
	SourceGrid    Source = "Grid"
	SourceNotes   Source = "Notes"
)

// ParseSource maps a caller supplied token into the closed Source set.
// Unknown tokens become SourceDefault.
func ParseSource(token string) Source {
	switch Source(token) {
	case SourceMyPage, SourceGrid, SourceNotes:
		return Source(token)
	default:
		return SourceDefault
	}
}

// Destination is the view a user is sent to after a successful mutation.
type Destination string

const (
	PictureGrid   Destination = "Picture.Grid"
	PictureMyPage Destination = "Picture.MyPage"
	NoteFeed      Destination = "Note.Notes"
	NoteMyPage    Destination = "Note.MyPage"
)

var destinationPaths = map[Destination]string{
	PictureGrid:   "/pictures",
	PictureMyPage: "/pictures/mypage",
	NoteFeed:      "/notes",
	NoteMyPage:    "/notes/mypage",
}

// Path is the URL the boundary redirects to.
func (d Destination) Path() string {
	if p, ok := destinationPaths[d]; ok {
		return p
	}
	return destinationPaths[PictureGrid]
}

// Redirect resolves where a user goes next. Only SourceMyPage leads to a
// personal page; every other source lands on the resource's public listing.
func Redirect(kind ResourceKind, src Source) Destination {
	switch kind {
	case KindNote:
		// Note comments follow the same rule as notes, so an unset source
		// lands on the feed rather than the personal page.
		if src == SourceMyPage {
			return NoteMyPage
		}
		return NoteFeed
	default:
		if src == SourceMyPage {
			return PictureMyPage
		}
		return PictureGrid
	}
}
