package gps

// daylight holds sunrise and sunset in minutes after midnight UTC.
type daylight struct {
	sunrise uint16
	sunset  uint16
}

// IsNight reports whether the fix time of day is outside
// [sunrise, sunset) for its day index. Unknown days count as daytime.
func (f Fix) IsNight() bool {
	if f.DayOfYear < 0 || f.DayOfYear >= len(sunTable) {
		return false
	}
	d := sunTable[f.DayOfYear]
	return f.TimeOfDay < int(d.sunrise) || f.TimeOfDay >= int(d.sunset)
}

// sunTable is indexed by the coarse day index (day + (month-1)*30). The
// first ten and last two entries come from the device firmware table; the
// rest are computed for its home region around 47.5N 19.0E.
var sunTable = [360]daylight{
	{390, 904}, {390, 905}, {390, 906}, {390, 907}, {390, 908}, {390, 909},
	{390, 910}, {389, 911}, {389, 912}, {389, 913}, {389, 914}, {388, 915},
	{388, 916}, {387, 917}, {387, 918}, {387, 918}, {387, 919}, {386, 920},
	{385, 922}, {384, 923}, {384, 925}, {383, 926}, {382, 928}, {381, 929},
	{380, 930}, {379, 932}, {378, 934}, {377, 935}, {376, 937}, {375, 938},
	{374, 940}, {371, 943}, {370, 944}, {369, 946}, {367, 948}, {366, 949},
	{365, 951}, {363, 952}, {362, 954}, {360, 956}, {359, 957}, {357, 959},
	{356, 960}, {354, 962}, {353, 964}, {351, 965}, {349, 967}, {348, 968},
	{346, 970}, {344, 972}, {343, 973}, {341, 975}, {339, 976}, {337, 978},
	{336, 979}, {334, 981}, {332, 982}, {330, 984}, {328, 985}, {328, 985},
	{328, 985}, {326, 987}, {325, 989}, {323, 990}, {321, 992}, {319, 993},
	{317, 995}, {315, 996}, {313, 998}, {311, 999}, {309, 1000}, {307, 1002},
	{305, 1003}, {303, 1005}, {301, 1006}, {299, 1008}, {297, 1009}, {295, 1011},
	{293, 1012}, {291, 1014}, {289, 1015}, {287, 1016}, {285, 1018}, {283, 1019},
	{281, 1021}, {279, 1022}, {277, 1023}, {275, 1025}, {273, 1026}, {271, 1028},
	{269, 1029}, {265, 1032}, {263, 1033}, {261, 1035}, {259, 1036}, {257, 1037},
	{255, 1039}, {253, 1040}, {251, 1041}, {249, 1043}, {247, 1044}, {245, 1046},
	{243, 1047}, {241, 1048}, {239, 1050}, {237, 1051}, {235, 1053}, {233, 1054},
	{231, 1055}, {229, 1057}, {228, 1058}, {226, 1060}, {224, 1061}, {222, 1062},
	{220, 1064}, {219, 1065}, {217, 1066}, {215, 1068}, {213, 1069}, {212, 1071},
	{210, 1072}, {208, 1073}, {207, 1075}, {205, 1076}, {203, 1077}, {202, 1079},
	{200, 1080}, {199, 1082}, {197, 1083}, {196, 1084}, {194, 1086}, {193, 1087},
	{192, 1088}, {190, 1090}, {189, 1091}, {188, 1092}, {186, 1093}, {185, 1095},
	{184, 1096}, {183, 1097}, {182, 1098}, {181, 1100}, {180, 1101}, {179, 1102},
	{178, 1103}, {177, 1104}, {176, 1105}, {175, 1106}, {174, 1108}, {173, 1109},
	{172, 1110}, {171, 1112}, {170, 1113}, {170, 1113}, {169, 1114}, {169, 1115},
	{168, 1116}, {168, 1117}, {167, 1118}, {167, 1118}, {167, 1119}, {166, 1120},
	{166, 1120}, {166, 1121}, {166, 1122}, {166, 1122}, {166, 1123}, {166, 1123},
	{166, 1123}, {166, 1124}, {166, 1124}, {166, 1124}, {166, 1125}, {166, 1125},
	{167, 1125}, {167, 1125}, {167, 1125}, {168, 1125}, {168, 1125}, {169, 1125},
	{169, 1125}, {170, 1125}, {170, 1125}, {171, 1124}, {172, 1124}, {172, 1124},
	{173, 1123}, {174, 1123}, {175, 1123}, {175, 1122}, {176, 1122}, {177, 1121},
	{178, 1120}, {179, 1120}, {180, 1119}, {181, 1118}, {182, 1118}, {183, 1117},
	{184, 1116}, {185, 1115}, {186, 1114}, {187, 1113}, {188, 1112}, {190, 1111},
	{191, 1110}, {192, 1109}, {193, 1108}, {194, 1107}, {196, 1105}, {197, 1104},
	{198, 1103}, {201, 1100}, {202, 1099}, {203, 1097}, {204, 1096}, {206, 1095},
	{207, 1093}, {208, 1092}, {210, 1090}, {211, 1088}, {212, 1087}, {214, 1085},
	{215, 1084}, {216, 1082}, {217, 1080}, {219, 1079}, {220, 1077}, {221, 1075},
	{223, 1073}, {224, 1072}, {225, 1070}, {227, 1068}, {228, 1066}, {229, 1064},
	{231, 1063}, {232, 1061}, {233, 1059}, {235, 1057}, {236, 1055}, {237, 1053},
	{239, 1051}, {241, 1047}, {243, 1045}, {244, 1043}, {245, 1041}, {247, 1039},
	{248, 1037}, {249, 1035}, {250, 1033}, {252, 1031}, {253, 1029}, {254, 1027},
	{256, 1025}, {257, 1023}, {258, 1021}, {260, 1019}, {261, 1017}, {262, 1015},
	{264, 1013}, {265, 1010}, {266, 1008}, {268, 1006}, {269, 1004}, {270, 1002},
	{272, 1000}, {273, 998}, {274, 996}, {276, 994}, {277, 992}, {278, 990},
	{280, 988}, {281, 986}, {282, 984}, {284, 982}, {285, 980}, {286, 978},
	{288, 976}, {289, 974}, {291, 972}, {292, 970}, {293, 968}, {295, 966},
	{296, 964}, {298, 962}, {299, 960}, {301, 958}, {302, 956}, {304, 954},
	{305, 953}, {307, 951}, {308, 949}, {310, 947}, {311, 945}, {313, 944},
	{314, 942}, {316, 940}, {317, 938}, {319, 937}, {320, 935}, {322, 933},
	{323, 932}, {326, 929}, {328, 927}, {329, 926}, {331, 924}, {332, 923},
	{334, 921}, {336, 920}, {337, 918}, {339, 917}, {340, 916}, {342, 914},
	{343, 913}, {345, 912}, {346, 911}, {348, 910}, {349, 908}, {351, 907},
	{352, 906}, {354, 905}, {355, 904}, {357, 903}, {358, 902}, {360, 902},
	{361, 901}, {362, 900}, {364, 899}, {365, 899}, {366, 898}, {368, 897},
	{369, 897}, {370, 896}, {371, 896}, {373, 895}, {374, 895}, {375, 894},
	{376, 894}, {377, 894}, {378, 894}, {379, 893}, {380, 893}, {381, 893},
	{382, 893}, {383, 893}, {384, 893}, {385, 893}, {385, 893}, {386, 894},
	{387, 894}, {387, 894}, {388, 895}, {388, 895}, {389, 895}, {389, 896},
	{390, 896}, {390, 897}, {390, 898}, {390, 899}, {390, 901}, {390, 902},
}
