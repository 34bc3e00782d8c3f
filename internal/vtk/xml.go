package vtk

import "encoding/xml"

type xmlFile struct {
	XMLName    xml.Name `xml:"VTKFile"`
	Type       string   `xml:"type,attr"`
	Version    string   `xml:"version,attr"`
	ByteOrder  string   `xml:"byte_order,attr"`
	HeaderType string   `xml:"header_type,attr,omitempty"`
	Compressor string   `xml:"compressor,attr,omitempty"`
	Grid       *xmlGrid `xml:"UnstructuredGrid,omitempty"`
	DataSets   []xmlPVD `xml:"Collection>DataSet,omitempty"`
}

type xmlGrid struct {
	Pieces []xmlPiece `xml:"Piece"`
}

type xmlPiece struct {
	NumberOfPoints int       `xml:"NumberOfPoints,attr"`
	NumberOfCells  int       `xml:"NumberOfCells,attr"`
	PointData      xmlArrays `xml:"PointData"`
	CellData       xmlArrays `xml:"CellData"`
	Points         xmlArrays `xml:"Points"`
	Cells          xmlArrays `xml:"Cells"`
}

type xmlArrays struct {
	Arrays []xmlArray `xml:"DataArray"`
}

type xmlArray struct {
	Type       string `xml:"type,attr"`
	Name       string `xml:"Name,attr,omitempty"`
	Components int    `xml:"NumberOfComponents,attr,omitempty"`
	Format     string `xml:"format,attr"`
	Text       string `xml:",chardata"`
}

type xmlPVD struct {
	Timestep float64 `xml:"timestep,attr"`
	Group    string  `xml:"group,attr"`
	Part     int     `xml:"part,attr"`
	File     string  `xml:"file,attr"`
}

func (a xmlArrays) named(name string) (xmlArray, bool) {
	for _, arr := range a.Arrays {
		if arr.Name == name {
			return arr, true
		}
	}
	return xmlArray{}, false
}
