package bluez

import "github.com/godbus/dbus/v5"

const (
	busName = "org.bluez"

	mediaPlayerIface   = "org.bluez.MediaPlayer1"
	objectManagerIface = "org.freedesktop.DBus.ObjectManager"
	propertiesIface    = "org.freedesktop.DBus.Properties"

	memberPropertiesChanged = "PropertiesChanged"
	memberInterfacesAdded   = "InterfacesAdded"
	memberInterfacesRemoved = "InterfacesRemoved"
	signalPropertiesChanged = propertiesIface + "." + memberPropertiesChanged
	signalInterfacesAdded   = objectManagerIface + "." + memberInterfacesAdded
	signalInterfacesRemoved = objectManagerIface + "." + memberInterfacesRemoved
	methodGetManagedObjects = objectManagerIface + ".GetManagedObjects"
	methodPropertiesGet     = propertiesIface + ".Get"

	signalBufferSize = 16
)

const (
	bluezNamespace    = dbus.ObjectPath("/org/bluez")
	objectManagerPath = dbus.ObjectPath("/")
)

// MediaPlayer1 property names.
const (
	propTrack  = "Track"
	propStatus = "Status"
	propName   = "Name"
	propDevice = "Device"
)

// Track metadata keys.
const (
	metaTitle          = "Title"
	metaArtist         = "Artist"
	metaAlbum          = "Album"
	metaGenre          = "Genre"
	metaTrackNumber    = "TrackNumber"
	metaNumberOfTracks = "NumberOfTracks"
	metaDuration       = "Duration"
)
