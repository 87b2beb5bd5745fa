package tasks

import (
	"strconv"
	"strings"
	"time"

	"github.com/bogem/id3v2"

	"github.com/desertthunder/albumgate/internal/models"
)

// writeTags sets title, album, artist and track number on the file at path and embeds
// artwork as the front cover when given. The album domain stands in for the artist.
func writeTags(path string, album models.Album, track models.Track, artwork []byte) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return err
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetTitle(track.Title)
	tag.SetAlbum(album.Title)
	if album.Domain != "" {
		tag.SetArtist(album.Domain)
	}
	tag.AddTextFrame(tag.CommonID("Track number/Position in set"), id3v2.EncodingUTF8, strconv.Itoa(track.ID))

	if artwork != nil {
		tag.DeleteFrames(tag.CommonID("Attached picture"))
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    "image/jpeg",
			PictureType: id3v2.PTFrontCover,
			Description: "Cover",
			Picture:     artwork,
		})
	}

	return tag.Save()
}

// TrackLength reads the length an audio file declares in its ID3 TLEN frame.
// Files without a tag or without the frame report zero.
func TrackLength(path string) (time.Duration, error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true, ParseFrames: []string{"Length"}})
	if err != nil {
		return 0, err
	}
	defer tag.Close()

	text := strings.TrimSpace(tag.GetTextFrame(tag.CommonID("Length")).Text)
	if text == "" {
		return 0, nil
	}
	ms, err := strconv.ParseInt(text, 10, 64)
	if err != nil || ms <= 0 {
		return 0, nil
	}
	return time.Duration(ms) * time.Millisecond, nil
}
