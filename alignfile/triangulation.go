// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package alignfile

import (
	"encoding/xml"
	"fmt"
)

// FaceVertex names a mesh vertex by its point index and spatial key token.
type FaceVertex struct {
	Index int
	Key   string
}

type TriangulationDocument struct {
	Points int
	Faces  [][3]FaceVertex
}

type xmlTriangulation struct {
	XMLName xml.Name  `xml:"triangulation"`
	Points  int       `xml:"points,attr"`
	Count   int       `xml:"faces,attr"`
	Faces   []xmlFace `xml:"face"`
}

type xmlFace struct {
	Index    int         `xml:"index,attr"`
	Vertices []xmlVertex `xml:"vertex"`
}

type xmlVertex struct {
	Index int    `xml:"index,attr"`
	Key   string `xml:"key,attr"`
}

func MarshalTriangulation(doc TriangulationDocument) ([]byte, error) {
	raw := xmlTriangulation{
		Points: doc.Points,
		Count:  len(doc.Faces),
		Faces:  make([]xmlFace, len(doc.Faces)),
	}
	for i, f := range doc.Faces {
		raw.Faces[i] = xmlFace{Index: i, Vertices: make([]xmlVertex, 3)}
		for j, v := range f {
			raw.Faces[i].Vertices[j] = xmlVertex{Index: v.Index, Key: v.Key}
		}
	}
	return encode(raw)
}

func UnmarshalTriangulation(data []byte) (TriangulationDocument, error) {
	var raw xmlTriangulation
	if err := xml.Unmarshal(data, &raw); err != nil {
		return TriangulationDocument{}, &FormatError{Reason: "malformed triangulation", Err: err}
	}
	doc := TriangulationDocument{
		Points: raw.Points,
		Faces:  make([][3]FaceVertex, len(raw.Faces)),
	}
	for i, f := range raw.Faces {
		if len(f.Vertices) != 3 {
			return TriangulationDocument{}, &FormatError{
				Reason: fmt.Sprintf("face %d has %d vertices, want 3", i, len(f.Vertices)),
			}
		}
		for j, v := range f.Vertices {
			doc.Faces[i][j] = FaceVertex{Index: v.Index, Key: v.Key}
		}
	}
	return doc, nil
}

// Blob is a self-contained snapshot tagged with its format for transport
// to remote clients.
type Blob struct {
	Format string
	Data   []byte
}

func NewBlob(data []byte) Blob {
	return Blob{Format: BlobFormat, Data: data}
}

func (b Blob) Size() int {
	return len(b.Data)
}
