package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Библиотеки типов
	LibInfo              Code = 1000
	LibParseError        Code = 1001
	LibDuplicateType     Code = 1002
	LibUnknownType       Code = 1003
	LibInvalidKind       Code = 1004
	LibInvalidAttribute  Code = 1005
	LibInvalidBase       Code = 1006
	LibUnknownMember     Code = 1007
	LibInheritanceCycle  Code = 1008
	LibCacheCorrupted    Code = 1009
	LibDuplicateLibrary  Code = 1010
	LibInvalidAccessor   Code = 1011
	LibInvalidMethodImpl Code = 1012

	// Рецепты
	RcpInfo             Code = 2000
	RcpParseError       Code = 2001
	RcpUnknownType      Code = 2002
	RcpUnknownMember    Code = 2003
	RcpInvalidAttribute Code = 2004
	RcpInvalidBody      Code = 2005
	RcpInvalidValue     Code = 2006
	RcpDuplicateRecipe  Code = 2007
	RcpMissingName      Code = 2008
	RcpInvalidName      Code = 2009

	// Модель типа
	ModelInfo                   Code = 3000
	ModelInvalidAttributes      Code = 3001
	ModelDuplicateMember        Code = 3002
	ModelStaticConstructor      Code = 3003
	ModelFinalOverride          Code = 3004
	ModelOutsideHierarchy       Code = 3005
	ModelNotVirtual             Code = 3006
	ModelCannotModify           Code = 3007
	ModelInvalidCustomAttribute Code = 3008
	ModelInvalidBody            Code = 3009
	ModelExplicitOverride       Code = 3010
	ModelInvalidParameter       Code = 3011
	ModelUnknownMember          Code = 3012
	ModelInvalidEvent           Code = 3013
	ModelInvalidProperty        Code = 3014
	ModelInvalidType            Code = 3015
	ModelAmbiguousMatch         Code = 3016

	// Отображение интерфейсов
	MapInfo               Code = 4000
	MapNotInterface       Code = 4001
	MapInterfaceNotFound  Code = 4002
	MapUnimplemented      Code = 4003
	MapAlreadyImplemented Code = 4004

	IOLoadFileError Code = 5001

	ProjInfo             Code = 6000
	ProjManifestNotFound Code = 6001
	ProjInvalidManifest  Code = 6002
	ProjMissingLibrary   Code = 6003
	ProjMissingRecipe    Code = 6004

	ObsInfo    Code = 7000
	ObsTimings Code = 7001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:                 "Unknown error",
		LibInfo:                     "Type library information",
		LibParseError:               "Type library parse error",
		LibDuplicateType:            "Duplicate type definition",
		LibUnknownType:              "Unknown type reference",
		LibInvalidKind:              "Invalid type kind",
		LibInvalidAttribute:         "Invalid attribute name",
		LibInvalidBase:              "Invalid base type",
		LibUnknownMember:            "Unknown member reference",
		LibInheritanceCycle:         "Inheritance cycle detected",
		LibCacheCorrupted:           "Library cache entry is corrupted",
		LibDuplicateLibrary:         "Library listed twice",
		LibInvalidAccessor:          "Invalid property or event accessor",
		LibInvalidMethodImpl:        "Invalid explicit override row",
		RcpInfo:                     "Recipe information",
		RcpParseError:               "Recipe parse error",
		RcpUnknownType:              "Unknown type in recipe",
		RcpUnknownMember:            "Unknown member in recipe",
		RcpInvalidAttribute:         "Invalid attribute name in recipe",
		RcpInvalidBody:              "Invalid body description",
		RcpInvalidValue:             "Invalid constant value",
		RcpDuplicateRecipe:          "Duplicate recipe type name",
		RcpMissingName:              "Recipe lacks a type name",
		RcpInvalidName:              "Invalid type name in recipe",
		ModelInfo:                   "Type model information",
		ModelInvalidAttributes:      "Invalid attribute combination",
		ModelDuplicateMember:        "Member with identical signature already exists",
		ModelStaticConstructor:      "Static constructors are not supported",
		ModelFinalOverride:          "Final method cannot be overridden",
		ModelOutsideHierarchy:       "Method is outside the type hierarchy",
		ModelNotVirtual:             "Method is not virtual",
		ModelCannotModify:           "Member cannot be modified",
		ModelInvalidCustomAttribute: "Invalid custom attribute declaration",
		ModelInvalidBody:            "Invalid member body",
		ModelExplicitOverride:       "Invalid explicit override",
		ModelInvalidParameter:       "Invalid parameter",
		ModelUnknownMember:          "Unknown member",
		ModelInvalidEvent:           "Invalid event",
		ModelInvalidProperty:        "Invalid property",
		ModelInvalidType:            "Invalid type reference",
		ModelAmbiguousMatch:         "Ambiguous match found",
		MapInfo:                     "Interface mapping information",
		MapNotInterface:             "Type is not an interface",
		MapInterfaceNotFound:        "Interface not found",
		MapUnimplemented:            "Interface methods are not implemented",
		MapAlreadyImplemented:       "Interface is already implemented",
		IOLoadFileError:             "I/O load file error",
		ProjInfo:                    "Project information",
		ProjManifestNotFound:        "Project manifest not found",
		ProjInvalidManifest:         "Invalid project manifest",
		ProjMissingLibrary:          "Missing type library",
		ProjMissingRecipe:           "Missing recipe",
		ObsInfo:                     "Observability information",
		ObsTimings:                  "Pipeline timings",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LIB%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("RCP%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("MDL%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("MAP%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 7000 && ic < 8000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
